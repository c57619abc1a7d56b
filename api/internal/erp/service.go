package erp

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"techsync/api/internal/docid"
)

// Service owns the business rules in front of a Repository: identifier
// checksums, required fields, password hashing and timestamps.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "erp"))
	return s
}

// --- companies ---------------------------------------------------------------

type CompanyInput struct {
	Name      string `json:"name"`
	TradeName string `json:"trade_name"`
	CNPJ      string `json:"cnpj"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

func (in CompanyInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "nome é obrigatório")
	}
	if !docid.ValidateCNPJ(in.CNPJ) {
		return invalid("cnpj", "CNPJ inválido")
	}
	return validateEmail(in.Email, false)
}

func (s *Service) CreateCompany(ctx context.Context, in CompanyInput) (Company, error) {
	if err := in.validate(); err != nil {
		return Company{}, err
	}
	now := s.now()
	c := Company{
		ID:        s.newID(),
		Name:      strings.TrimSpace(in.Name),
		TradeName: strings.TrimSpace(in.TradeName),
		CNPJ:      docid.Digits(in.CNPJ),
		Email:     normalizeEmail(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateCompany(ctx, c); err != nil {
		return Company{}, fmt.Errorf("create company: %w", err)
	}
	s.logger.Info("company created", zap.String("company_id", c.ID))
	return c, nil
}

func (s *Service) GetCompany(ctx context.Context, id string) (Company, error) {
	return s.repo.GetCompany(ctx, id)
}

func (s *Service) ListCompanies(ctx context.Context) ([]Company, error) {
	return s.repo.ListCompanies(ctx)
}

func (s *Service) UpdateCompany(ctx context.Context, id string, in CompanyInput) (Company, error) {
	if err := in.validate(); err != nil {
		return Company{}, err
	}
	c, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return Company{}, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.TradeName = strings.TrimSpace(in.TradeName)
	c.CNPJ = docid.Digits(in.CNPJ)
	c.Email = normalizeEmail(in.Email)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Address = strings.TrimSpace(in.Address)
	c.UpdatedAt = s.now()
	if err := s.repo.UpdateCompany(ctx, c); err != nil {
		return Company{}, fmt.Errorf("update company: %w", err)
	}
	return c, nil
}

func (s *Service) DeleteCompany(ctx context.Context, id string) error {
	return s.repo.DeleteCompany(ctx, id)
}

// --- clients -----------------------------------------------------------------

type ClientInput struct {
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Document  string `json:"document"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (in ClientInput) validate() (docid.Kind, error) {
	if strings.TrimSpace(in.CompanyID) == "" {
		return docid.KindUnknown, invalid("company_id", "empresa é obrigatória")
	}
	if strings.TrimSpace(in.Name) == "" {
		return docid.KindUnknown, invalid("name", "nome é obrigatório")
	}
	kind, ok := docid.Validate(in.Document)
	if !ok {
		return kind, invalid("document", "CPF/CNPJ inválido")
	}
	return kind, validateEmail(in.Email, false)
}

func (s *Service) CreateClient(ctx context.Context, in ClientInput) (Client, error) {
	kind, err := in.validate()
	if err != nil {
		return Client{}, err
	}
	if _, err := s.repo.GetCompany(ctx, in.CompanyID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Client{}, invalid("company_id", "empresa não encontrada")
		}
		return Client{}, err
	}
	now := s.now()
	c := Client{
		ID:           s.newID(),
		CompanyID:    in.CompanyID,
		Name:         strings.TrimSpace(in.Name),
		Document:     docid.Digits(in.Document),
		DocumentKind: kind,
		Email:        normalizeEmail(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateClient(ctx, c); err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	s.logger.Info("client created", zap.String("client_id", c.ID), zap.String("company_id", c.CompanyID))
	return c, nil
}

func (s *Service) GetClient(ctx context.Context, id string) (Client, error) {
	return s.repo.GetClient(ctx, id)
}

// ListClients lists the clients of one company, or of all companies when
// companyID is empty.
func (s *Service) ListClients(ctx context.Context, companyID string) ([]Client, error) {
	return s.repo.ListClients(ctx, companyID)
}

func (s *Service) UpdateClient(ctx context.Context, id string, in ClientInput) (Client, error) {
	kind, err := in.validate()
	if err != nil {
		return Client{}, err
	}
	c, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return Client{}, err
	}
	if c.CompanyID != in.CompanyID {
		if _, err := s.repo.GetCompany(ctx, in.CompanyID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return Client{}, invalid("company_id", "empresa não encontrada")
			}
			return Client{}, err
		}
	}
	c.CompanyID = in.CompanyID
	c.Name = strings.TrimSpace(in.Name)
	c.Document = docid.Digits(in.Document)
	c.DocumentKind = kind
	c.Email = normalizeEmail(in.Email)
	c.Phone = strings.TrimSpace(in.Phone)
	c.UpdatedAt = s.now()
	if err := s.repo.UpdateClient(ctx, c); err != nil {
		return Client{}, fmt.Errorf("update client: %w", err)
	}
	return c, nil
}

func (s *Service) DeleteClient(ctx context.Context, id string) error {
	return s.repo.DeleteClient(ctx, id)
}

// --- profiles ----------------------------------------------------------------

type ProfileInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	CPF      string `json:"cpf"`
	Role     Role   `json:"role"`
	Password string `json:"password"`
}

const (
	minPasswordLen = 8
	// bcrypt rejects longer input
	maxPasswordLen = 72
)

func (in ProfileInput) validate(requirePassword bool) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "nome é obrigatório")
	}
	if err := validateEmail(in.Email, true); err != nil {
		return err
	}
	if strings.TrimSpace(in.CPF) != "" && !docid.ValidateCPF(in.CPF) {
		return invalid("cpf", "CPF inválido")
	}
	switch in.Role {
	case "", RoleAdmin, RoleOperator:
	default:
		return invalid("role", "perfil desconhecido")
	}
	if (requirePassword || in.Password != "") && len(in.Password) < minPasswordLen {
		return invalid("password", fmt.Sprintf("a senha deve ter ao menos %d caracteres", minPasswordLen))
	}
	if len(in.Password) > maxPasswordLen {
		return invalid("password", fmt.Sprintf("a senha deve ter no máximo %d bytes", maxPasswordLen))
	}
	return nil
}

func (s *Service) CreateProfile(ctx context.Context, in ProfileInput) (Profile, error) {
	if err := in.validate(true); err != nil {
		return Profile{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Profile{}, fmt.Errorf("hash password: %w", err)
	}
	role := in.Role
	if role == "" {
		role = RoleOperator
	}
	now := s.now()
	p := Profile{
		ID:           s.newID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		CPF:          docid.Digits(in.CPF),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateProfile(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("create profile: %w", err)
	}
	s.logger.Info("profile created", zap.String("profile_id", p.ID))
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, id string) (Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

// UpdateProfile rewrites the editable fields; an empty password keeps the
// current one.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (Profile, error) {
	if err := in.validate(false); err != nil {
		return Profile{}, err
	}
	p, err := s.repo.GetProfile(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Email = normalizeEmail(in.Email)
	p.CPF = docid.Digits(in.CPF)
	if in.Role != "" {
		p.Role = in.Role
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return Profile{}, fmt.Errorf("hash password: %w", err)
		}
		p.PasswordHash = string(hash)
	}
	p.UpdatedAt = s.now()
	if err := s.repo.UpdateProfile(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Profile, error) {
	p, err := s.repo.GetProfileByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{}, ErrInvalidCredentials
		}
		return Profile{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return Profile{}, ErrInvalidCredentials
	}
	return p, nil
}

// --- transactions ------------------------------------------------------------

type TransactionInput struct {
	CompanyID   string          `json:"company_id"`
	ClientID    string          `json:"client_id"`
	Kind        TransactionKind `json:"kind"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	AmountCents int64           `json:"amount_cents"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func (s *Service) CreateTransaction(ctx context.Context, in TransactionInput) (Transaction, error) {
	if !in.Kind.Valid() {
		return Transaction{}, invalid("kind", "tipo deve ser income ou expense")
	}
	if in.AmountCents <= 0 {
		return Transaction{}, invalid("amount_cents", "valor deve ser positivo")
	}
	if _, err := s.repo.GetCompany(ctx, in.CompanyID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Transaction{}, invalid("company_id", "empresa não encontrada")
		}
		return Transaction{}, err
	}
	if in.ClientID != "" {
		cl, err := s.repo.GetClient(ctx, in.ClientID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Transaction{}, invalid("client_id", "cliente não encontrado")
			}
			return Transaction{}, err
		}
		if cl.CompanyID != in.CompanyID {
			return Transaction{}, invalid("client_id", "cliente pertence a outra empresa")
		}
	}
	now := s.now()
	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	t := Transaction{
		ID:          s.newID(),
		CompanyID:   in.CompanyID,
		ClientID:    in.ClientID,
		Kind:        in.Kind,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		AmountCents: in.AmountCents,
		OccurredAt:  occurred.UTC(),
		CreatedAt:   now,
	}
	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		return Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

func (s *Service) ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, f)
}

func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	return s.repo.DeleteTransaction(ctx, id)
}

// --- helpers -----------------------------------------------------------------

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validateEmail(s string, required bool) error {
	s = strings.TrimSpace(s)
	if s == "" {
		if required {
			return invalid("email", "e-mail é obrigatório")
		}
		return nil
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return invalid("email", "e-mail inválido")
	}
	return nil
}
