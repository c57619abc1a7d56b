package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techsync/api/internal/erp"
)

func at(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 10, 0, 0, 0, time.UTC)
}

func TestSummarize(t *testing.T) {
	txs := []erp.Transaction{
		{Kind: erp.Income, Category: "Serviços", AmountCents: 10000, OccurredAt: at(1, 10)},
		{Kind: erp.Income, Category: "Serviços", AmountCents: 20001, OccurredAt: at(2, 3)},
		{Kind: erp.Expense, Category: "Aluguel", AmountCents: 5000, OccurredAt: at(1, 5)},
		{Kind: erp.Expense, AmountCents: 1000, OccurredAt: at(2, 20)},
	}

	s := Summarize(txs)
	assert.Equal(t, int64(30001), s.IncomeCents)
	assert.Equal(t, int64(6000), s.ExpenseCents)
	assert.Equal(t, int64(24001), s.BalanceCents)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, int64(15001), s.AverageTicketCents) // 15000.5 rounds up

	require.Len(t, s.ByMonth, 2)
	assert.Equal(t, MonthTotal{Month: "2024-01", IncomeCents: 10000, ExpenseCents: 5000, BalanceCents: 5000}, s.ByMonth[0])
	assert.Equal(t, MonthTotal{Month: "2024-02", IncomeCents: 20001, ExpenseCents: 1000, BalanceCents: 19001}, s.ByMonth[1])

	require.Len(t, s.ByCategory, 3)
	assert.Equal(t, "Serviços", s.ByCategory[0].Category)
	assert.Equal(t, 2, s.ByCategory[0].Count)
	assert.Equal(t, "Aluguel", s.ByCategory[1].Category)
	assert.Equal(t, uncategorized, s.ByCategory[2].Category)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Count)
	assert.Zero(t, s.AverageTicketCents)
	assert.NotNil(t, s.ByMonth)
	assert.NotNil(t, s.ByCategory)
}

type listerFunc func(context.Context, erp.TransactionFilter) ([]erp.Transaction, error)

func (f listerFunc) ListTransactions(ctx context.Context, filter erp.TransactionFilter) ([]erp.Transaction, error) {
	return f(ctx, filter)
}

func TestService_Summary(t *testing.T) {
	var seen erp.TransactionFilter
	svc := NewService(listerFunc(func(_ context.Context, f erp.TransactionFilter) ([]erp.Transaction, error) {
		seen = f
		return []erp.Transaction{{Kind: erp.Income, AmountCents: 500, OccurredAt: at(3, 1)}}, nil
	}))

	s, err := svc.Summary(context.Background(), erp.TransactionFilter{CompanyID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "c1", seen.CompanyID)
	assert.Equal(t, int64(500), s.BalanceCents)

	boom := errors.New("db down")
	svc = NewService(listerFunc(func(context.Context, erp.TransactionFilter) ([]erp.Transaction, error) {
		return nil, boom
	}))
	_, err = svc.Summary(context.Background(), erp.TransactionFilter{})
	assert.ErrorIs(t, err, boom)
}
