package erp

import "context"

type CompanyRepository interface {
	CreateCompany(ctx context.Context, c Company) error
	GetCompany(ctx context.Context, id string) (Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	UpdateCompany(ctx context.Context, c Company) error
	DeleteCompany(ctx context.Context, id string) error
}

type ClientRepository interface {
	CreateClient(ctx context.Context, c Client) error
	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context, companyID string) ([]Client, error)
	UpdateClient(ctx context.Context, c Client) error
	DeleteClient(ctx context.Context, id string) error
}

type ProfileRepository interface {
	CreateProfile(ctx context.Context, p Profile) error
	GetProfile(ctx context.Context, id string) (Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (Profile, error)
	UpdateProfile(ctx context.Context, p Profile) error
}

type TransactionRepository interface {
	CreateTransaction(ctx context.Context, t Transaction) error
	ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// Repository is everything the service persists. Implementations return
// ErrNotFound for missing rows and ErrConflict for uniqueness or reference
// violations.
type Repository interface {
	CompanyRepository
	ClientRepository
	ProfileRepository
	TransactionRepository
}
