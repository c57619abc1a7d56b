package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/jmoiron/sqlx"

	"techsync/api/internal/erp"
)

//go:embed schema.sql
var schema string

// Postgres is an erp.Repository over database/sql (pgx driver) with sqlx
// struct scanning.
type Postgres struct{ DB *sqlx.DB }

var _ erp.Repository = (*Postgres)(nil)

func NewPostgres(db *sqlx.DB) *Postgres { return &Postgres{DB: db} }

// Open connects with the pgx driver and applies the pool limits used by the services.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// Migrate creates missing tables. It is idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// mapErr translates driver errors into the erp sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return erp.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503": // unique_violation, foreign_key_violation
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, erp.ErrConflict)
		}
	}
	return err
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return erp.ErrNotFound
	}
	return nil
}

// --- companies ---------------------------------------------------------------

const companyCols = `id, name, trade_name, cnpj, email, phone, address, created_at, updated_at`

func (p *Postgres) CreateCompany(ctx context.Context, c erp.Company) error {
	const q = `insert into companies (` + companyCols + `)
values (:id, :name, :trade_name, :cnpj, :email, :phone, :address, :created_at, :updated_at)`
	_, err := p.DB.NamedExecContext(ctx, q, c)
	return mapErr(err)
}

func (p *Postgres) GetCompany(ctx context.Context, id string) (erp.Company, error) {
	var c erp.Company
	err := p.DB.GetContext(ctx, &c, `select `+companyCols+` from companies where id = $1`, id)
	return c, mapErr(err)
}

func (p *Postgres) ListCompanies(ctx context.Context) ([]erp.Company, error) {
	out := []erp.Company{}
	err := p.DB.SelectContext(ctx, &out, `select `+companyCols+` from companies order by name`)
	return out, mapErr(err)
}

func (p *Postgres) UpdateCompany(ctx context.Context, c erp.Company) error {
	const q = `update companies
set name = :name, trade_name = :trade_name, cnpj = :cnpj, email = :email,
    phone = :phone, address = :address, updated_at = :updated_at
where id = :id`
	return affectedOne(p.DB.NamedExecContext(ctx, q, c))
}

func (p *Postgres) DeleteCompany(ctx context.Context, id string) error {
	return affectedOne(p.DB.ExecContext(ctx, `delete from companies where id = $1`, id))
}

// --- clients -----------------------------------------------------------------

const clientCols = `id, company_id, name, document, document_kind, email, phone, created_at, updated_at`

func (p *Postgres) CreateClient(ctx context.Context, c erp.Client) error {
	const q = `insert into clients (` + clientCols + `)
values (:id, :company_id, :name, :document, :document_kind, :email, :phone, :created_at, :updated_at)`
	_, err := p.DB.NamedExecContext(ctx, q, c)
	return mapErr(err)
}

func (p *Postgres) GetClient(ctx context.Context, id string) (erp.Client, error) {
	var c erp.Client
	err := p.DB.GetContext(ctx, &c, `select `+clientCols+` from clients where id = $1`, id)
	return c, mapErr(err)
}

func (p *Postgres) ListClients(ctx context.Context, companyID string) ([]erp.Client, error) {
	out := []erp.Client{}
	q := `select ` + clientCols + ` from clients`
	args := []any{}
	if companyID != "" {
		q += ` where company_id = $1`
		args = append(args, companyID)
	}
	q += ` order by name`
	err := p.DB.SelectContext(ctx, &out, q, args...)
	return out, mapErr(err)
}

func (p *Postgres) UpdateClient(ctx context.Context, c erp.Client) error {
	const q = `update clients
set company_id = :company_id, name = :name, document = :document, document_kind = :document_kind,
    email = :email, phone = :phone, updated_at = :updated_at
where id = :id`
	return affectedOne(p.DB.NamedExecContext(ctx, q, c))
}

func (p *Postgres) DeleteClient(ctx context.Context, id string) error {
	return affectedOne(p.DB.ExecContext(ctx, `delete from clients where id = $1`, id))
}

// --- profiles ----------------------------------------------------------------

const profileCols = `id, name, email, cpf, role, password_hash, created_at, updated_at`

func (p *Postgres) CreateProfile(ctx context.Context, pr erp.Profile) error {
	const q = `insert into profiles (` + profileCols + `)
values (:id, :name, :email, :cpf, :role, :password_hash, :created_at, :updated_at)`
	_, err := p.DB.NamedExecContext(ctx, q, pr)
	return mapErr(err)
}

func (p *Postgres) GetProfile(ctx context.Context, id string) (erp.Profile, error) {
	var pr erp.Profile
	err := p.DB.GetContext(ctx, &pr, `select `+profileCols+` from profiles where id = $1`, id)
	return pr, mapErr(err)
}

func (p *Postgres) GetProfileByEmail(ctx context.Context, email string) (erp.Profile, error) {
	var pr erp.Profile
	err := p.DB.GetContext(ctx, &pr, `select `+profileCols+` from profiles where email = $1`, email)
	return pr, mapErr(err)
}

func (p *Postgres) UpdateProfile(ctx context.Context, pr erp.Profile) error {
	const q = `update profiles
set name = :name, email = :email, cpf = :cpf, role = :role,
    password_hash = :password_hash, updated_at = :updated_at
where id = :id`
	return affectedOne(p.DB.NamedExecContext(ctx, q, pr))
}

// --- transactions ------------------------------------------------------------

const transactionSelect = `select id, company_id, coalesce(client_id, '') as client_id, kind, category,
       description, amount_cents, occurred_at, created_at
from transactions`

func (p *Postgres) CreateTransaction(ctx context.Context, t erp.Transaction) error {
	const q = `insert into transactions (
  id, company_id, client_id, kind, category, description, amount_cents, occurred_at, created_at
) values ($1, $2, nullif($3, ''), $4, $5, $6, $7, $8, $9)`
	_, err := p.DB.ExecContext(ctx, q,
		t.ID, t.CompanyID, t.ClientID, t.Kind, t.Category, t.Description,
		t.AmountCents, t.OccurredAt, t.CreatedAt,
	)
	return mapErr(err)
}

func (p *Postgres) ListTransactions(ctx context.Context, f erp.TransactionFilter) ([]erp.Transaction, error) {
	q, args := transactionQuery(f)
	out := []erp.Transaction{}
	err := p.DB.SelectContext(ctx, &out, q, args...)
	return out, mapErr(err)
}

// transactionQuery builds the filtered select with positional parameters.
func transactionQuery(f erp.TransactionFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CompanyID != "" {
		add("company_id = $%d", f.CompanyID)
	}
	if f.ClientID != "" {
		add("client_id = $%d", f.ClientID)
	}
	if f.Kind != "" {
		add("kind = $%d", string(f.Kind))
	}
	if !f.From.IsZero() {
		add("occurred_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("occurred_at < $%d", f.To)
	}
	q := transactionSelect
	if len(where) > 0 {
		q += "\nwhere " + strings.Join(where, " and ")
	}
	return q + "\norder by occurred_at desc, id", args
}

func (p *Postgres) DeleteTransaction(ctx context.Context, id string) error {
	return affectedOne(p.DB.ExecContext(ctx, `delete from transactions where id = $1`, id))
}
