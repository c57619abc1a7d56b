package assistant

import (
	"context"
	"errors"

	"techsync/api/internal/dashboard"
	"techsync/api/internal/erp"
)

// ERPReader is the read side of erp.Service the assistant may call.
type ERPReader interface {
	ListCompanies(ctx context.Context) ([]erp.Company, error)
	ListClients(ctx context.Context, companyID string) ([]erp.Client, error)
	ListTransactions(ctx context.Context, f erp.TransactionFilter) ([]erp.Transaction, error)
	GetProfile(ctx context.Context, id string) (erp.Profile, error)
}

type SummaryReader interface {
	Summary(ctx context.Context, f erp.TransactionFilter) (dashboard.Summary, error)
}

var errNoProfile = errors.New("no signed-in profile")

type profileKey struct{}

// WithProfileID marks ctx with the profile getProfile should return.
func WithProfileID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, profileKey{}, id)
}

func ProfileIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(profileKey{}).(string)
	return id, ok && id != ""
}

// ERPRegistry binds every operation to the ERP services.
func ERPRegistry(src ERPReader, sums SummaryReader) (*Registry, error) {
	return NewRegistry(map[Operation]FetchFunc{
		OpListCompanies: func(ctx context.Context) (any, error) {
			return src.ListCompanies(ctx)
		},
		OpListClients: func(ctx context.Context) (any, error) {
			return src.ListClients(ctx, "")
		},
		OpListTransactions: func(ctx context.Context) (any, error) {
			return src.ListTransactions(ctx, erp.TransactionFilter{})
		},
		OpGetProfile: func(ctx context.Context) (any, error) {
			id, ok := ProfileIDFromContext(ctx)
			if !ok {
				return nil, errNoProfile
			}
			return src.GetProfile(ctx, id)
		},
		OpGetDashboardSummary: func(ctx context.Context) (any, error) {
			return sums.Summary(ctx, erp.TransactionFilter{})
		},
	})
}
