package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Operation names one read-only data fetch the classifier may ask for. The
// set is closed: Registry refuses anything not listed here.
type Operation string

const (
	OpListCompanies       Operation = "listCompanies"
	OpListClients         Operation = "listClients"
	OpListTransactions    Operation = "listTransactions"
	OpGetProfile          Operation = "getProfile"
	OpGetDashboardSummary Operation = "getDashboardSummary"
)

var operations = []Operation{
	OpListCompanies,
	OpListClients,
	OpListTransactions,
	OpGetProfile,
	OpGetDashboardSummary,
}

var descriptions = map[Operation]string{
	OpListCompanies:       "all registered companies (name, trade name, CNPJ, contacts)",
	OpListClients:         "all clients of every company (name, CPF/CNPJ document, contacts)",
	OpListTransactions:    "financial transactions, newest first (kind income/expense, category, amount in cents, date)",
	OpGetProfile:          "profile of the signed-in user (name, e-mail, role)",
	OpGetDashboardSummary: "aggregated totals: income, expense, balance, average ticket, by month and by category",
}

// Operations returns the whitelist in a stable order.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

func (o Operation) Valid() bool {
	_, ok := descriptions[o]
	return ok
}

// FetchFunc is a zero-argument read returning JSON-encodable data.
type FetchFunc func(ctx context.Context) (any, error)

// Registry maps every whitelisted Operation to its implementation.
type Registry struct {
	funcs map[Operation]FetchFunc
}

// NewRegistry fails when funcs names an operation outside the whitelist or
// leaves a whitelisted operation without an implementation.
func NewRegistry(funcs map[Operation]FetchFunc) (*Registry, error) {
	r := &Registry{funcs: make(map[Operation]FetchFunc, len(funcs))}
	var unknown []string
	for op, fn := range funcs {
		if !op.Valid() {
			unknown = append(unknown, string(op))
			continue
		}
		if fn == nil {
			return nil, fmt.Errorf("assistant: operation %q has a nil function", op)
		}
		r.funcs[op] = fn
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("assistant: unknown operations: %s", strings.Join(unknown, ", "))
	}
	for _, op := range operations {
		if _, ok := r.funcs[op]; !ok {
			return nil, fmt.Errorf("assistant: operation %q is not implemented", op)
		}
	}
	return r, nil
}

// Lookup resolves a name coming from the classifier.
func (r *Registry) Lookup(name string) (FetchFunc, bool) {
	fn, ok := r.funcs[Operation(name)]
	return fn, ok
}

// describe renders the whitelist for the classification prompt.
func describe() string {
	var b strings.Builder
	for _, op := range operations {
		fmt.Fprintf(&b, "- %s: %s\n", op, descriptions[op])
	}
	return strings.TrimRight(b.String(), "\n")
}
