package erp

import (
	"time"

	"techsync/api/internal/docid"
)

type Company struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	TradeName string    `json:"trade_name,omitempty" db:"trade_name"`
	CNPJ      string    `json:"cnpj" db:"cnpj"`
	Email     string    `json:"email,omitempty" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	Address   string    `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Client struct {
	ID           string     `json:"id" db:"id"`
	CompanyID    string     `json:"company_id" db:"company_id"`
	Name         string     `json:"name" db:"name"`
	Document     string     `json:"document" db:"document"`
	DocumentKind docid.Kind `json:"document_kind" db:"document_kind"`
	Email        string     `json:"email,omitempty" db:"email"`
	Phone        string     `json:"phone,omitempty" db:"phone"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

type Profile struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	CPF          string    `json:"cpf,omitempty" db:"cpf"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type TransactionKind string

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

func (k TransactionKind) Valid() bool { return k == Income || k == Expense }

type Transaction struct {
	ID          string          `json:"id" db:"id"`
	CompanyID   string          `json:"company_id" db:"company_id"`
	ClientID    string          `json:"client_id,omitempty" db:"client_id"`
	Kind        TransactionKind `json:"kind" db:"kind"`
	Category    string          `json:"category,omitempty" db:"category"`
	Description string          `json:"description,omitempty" db:"description"`
	AmountCents int64           `json:"amount_cents" db:"amount_cents"`
	OccurredAt  time.Time       `json:"occurred_at" db:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// TransactionFilter narrows ListTransactions; zero fields match everything.
// From is inclusive, To is exclusive.
type TransactionFilter struct {
	CompanyID string
	ClientID  string
	Kind      TransactionKind
	From      time.Time
	To        time.Time
}

func (f TransactionFilter) Match(t Transaction) bool {
	switch {
	case f.CompanyID != "" && t.CompanyID != f.CompanyID:
		return false
	case f.ClientID != "" && t.ClientID != f.ClientID:
		return false
	case f.Kind != "" && t.Kind != f.Kind:
		return false
	case !f.From.IsZero() && t.OccurredAt.Before(f.From):
		return false
	case !f.To.IsZero() && !t.OccurredAt.Before(f.To):
		return false
	}
	return true
}
