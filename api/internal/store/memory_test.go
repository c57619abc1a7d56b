package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techsync/api/internal/erp"
)

func seedCompany(t *testing.T, m *Memory, id, cnpj string) erp.Company {
	t.Helper()
	c := erp.Company{ID: id, Name: "Empresa " + id, CNPJ: cnpj}
	require.NoError(t, m.CreateCompany(context.Background(), c))
	return c
}

func TestMemory_CompanyUniqueCNPJ(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedCompany(t, m, "c1", "11222333000181")

	err := m.CreateCompany(ctx, erp.Company{ID: "c2", CNPJ: "11222333000181"})
	assert.ErrorIs(t, err, erp.ErrConflict)

	seedCompany(t, m, "c2", "45997418000153")
	err = m.UpdateCompany(ctx, erp.Company{ID: "c2", CNPJ: "11222333000181"})
	assert.ErrorIs(t, err, erp.ErrConflict)
}

func TestMemory_GetMissing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.GetCompany(ctx, "nope")
	assert.ErrorIs(t, err, erp.ErrNotFound)
	_, err = m.GetClient(ctx, "nope")
	assert.ErrorIs(t, err, erp.ErrNotFound)
	_, err = m.GetProfileByEmail(ctx, "x@y.z")
	assert.ErrorIs(t, err, erp.ErrNotFound)
	assert.ErrorIs(t, m.DeleteTransaction(ctx, "nope"), erp.ErrNotFound)
}

func TestMemory_DeleteCompanyWithReferences(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedCompany(t, m, "c1", "11222333000181")
	require.NoError(t, m.CreateClient(ctx, erp.Client{ID: "k1", CompanyID: "c1", Document: "11144477735"}))

	assert.ErrorIs(t, m.DeleteCompany(ctx, "c1"), erp.ErrConflict)

	require.NoError(t, m.DeleteClient(ctx, "k1"))
	assert.NoError(t, m.DeleteCompany(ctx, "c1"))
}

func TestMemory_ClientRequiresCompany(t *testing.T) {
	m := NewMemory()
	err := m.CreateClient(context.Background(), erp.Client{ID: "k1", CompanyID: "missing", Document: "11144477735"})
	assert.ErrorIs(t, err, erp.ErrConflict)
}

func TestMemory_ListTransactionsFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedCompany(t, m, "c1", "11222333000181")
	seedCompany(t, m, "c2", "45997418000153")

	day := func(d int) time.Time { return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC) }
	for _, tx := range []erp.Transaction{
		{ID: "t1", CompanyID: "c1", Kind: erp.Income, AmountCents: 100, OccurredAt: day(1)},
		{ID: "t2", CompanyID: "c1", Kind: erp.Expense, AmountCents: 50, OccurredAt: day(5)},
		{ID: "t3", CompanyID: "c2", Kind: erp.Income, AmountCents: 70, OccurredAt: day(3)},
	} {
		require.NoError(t, m.CreateTransaction(ctx, tx))
	}

	all, err := m.ListTransactions(ctx, erp.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"t2", "t3", "t1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	c1, err := m.ListTransactions(ctx, erp.TransactionFilter{CompanyID: "c1", Kind: erp.Income})
	require.NoError(t, err)
	require.Len(t, c1, 1)
	assert.Equal(t, "t1", c1[0].ID)

	window, err := m.ListTransactions(ctx, erp.TransactionFilter{From: day(2), To: day(5)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "t3", window[0].ID)
}

func TestMemory_ProfileUniqueEmail(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateProfile(ctx, erp.Profile{ID: "p1", Email: "ana@example.com"}))
	assert.ErrorIs(t, m.CreateProfile(ctx, erp.Profile{ID: "p2", Email: "ana@example.com"}), erp.ErrConflict)

	p, err := m.GetProfileByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
}
