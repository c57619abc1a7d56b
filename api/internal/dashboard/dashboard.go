// Package dashboard aggregates financial transactions into the totals shown
// on the ERP home screen.
package dashboard

import (
	"context"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"techsync/api/internal/erp"
)

type MonthTotal struct {
	Month        string `json:"month"` // YYYY-MM
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	BalanceCents int64  `json:"balance_cents"`
}

type CategoryTotal struct {
	Category   string              `json:"category"`
	Kind       erp.TransactionKind `json:"kind"`
	TotalCents int64               `json:"total_cents"`
	Count      int                 `json:"count"`
}

type Summary struct {
	IncomeCents        int64           `json:"income_cents"`
	ExpenseCents       int64           `json:"expense_cents"`
	BalanceCents       int64           `json:"balance_cents"`
	Count              int             `json:"count"`
	AverageTicketCents int64           `json:"average_ticket_cents"`
	ByMonth            []MonthTotal    `json:"by_month"`
	ByCategory         []CategoryTotal `json:"by_category"`
}

const uncategorized = "sem categoria"

// Summarize folds txs into a Summary. The average ticket is the mean amount
// of income transactions.
func Summarize(txs []erp.Transaction) Summary {
	s := Summary{ByMonth: []MonthTotal{}, ByCategory: []CategoryTotal{}}
	months := map[string]*MonthTotal{}
	type catKey struct {
		name string
		kind erp.TransactionKind
	}
	cats := map[catKey]*CategoryTotal{}
	var incomes stats.Float64Data

	for _, t := range txs {
		s.Count++
		key := t.OccurredAt.UTC().Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthTotal{Month: key}
			months[key] = m
		}
		switch t.Kind {
		case erp.Income:
			s.IncomeCents += t.AmountCents
			m.IncomeCents += t.AmountCents
			incomes = append(incomes, float64(t.AmountCents))
		case erp.Expense:
			s.ExpenseCents += t.AmountCents
			m.ExpenseCents += t.AmountCents
		}
		m.BalanceCents = m.IncomeCents - m.ExpenseCents

		name := t.Category
		if name == "" {
			name = uncategorized
		}
		c, ok := cats[catKey{name, t.Kind}]
		if !ok {
			c = &CategoryTotal{Category: name, Kind: t.Kind}
			cats[catKey{name, t.Kind}] = c
		}
		c.TotalCents += t.AmountCents
		c.Count++
	}
	s.BalanceCents = s.IncomeCents - s.ExpenseCents

	if len(incomes) > 0 {
		if mean, err := stats.Mean(incomes); err == nil {
			s.AverageTicketCents = int64(math.Round(mean))
		}
	}

	for _, m := range months {
		s.ByMonth = append(s.ByMonth, *m)
	}
	sort.Slice(s.ByMonth, func(i, j int) bool { return s.ByMonth[i].Month < s.ByMonth[j].Month })

	for _, c := range cats {
		s.ByCategory = append(s.ByCategory, *c)
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		a, b := s.ByCategory[i], s.ByCategory[j]
		if a.TotalCents != b.TotalCents {
			return a.TotalCents > b.TotalCents
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Kind < b.Kind
	})
	return s
}

type TransactionLister interface {
	ListTransactions(ctx context.Context, f erp.TransactionFilter) ([]erp.Transaction, error)
}

type Service struct {
	src TransactionLister
}

func NewService(src TransactionLister) *Service { return &Service{src: src} }

func (s *Service) Summary(ctx context.Context, f erp.TransactionFilter) (Summary, error) {
	txs, err := s.src.ListTransactions(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(txs), nil
}
