package store

import (
	"context"
	"sort"
	"sync"

	"techsync/api/internal/erp"
)

// Memory is an erp.Repository kept in process memory. It enforces the same
// uniqueness and reference rules as the Postgres schema.
type Memory struct {
	mu           sync.RWMutex
	companies    map[string]erp.Company
	clients      map[string]erp.Client
	profiles     map[string]erp.Profile
	transactions map[string]erp.Transaction
}

var _ erp.Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		companies:    map[string]erp.Company{},
		clients:      map[string]erp.Client{},
		profiles:     map[string]erp.Profile{},
		transactions: map[string]erp.Transaction{},
	}
}

func (m *Memory) CreateCompany(_ context.Context, c erp.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[c.ID]; ok {
		return erp.ErrConflict
	}
	for _, other := range m.companies {
		if other.CNPJ == c.CNPJ {
			return erp.ErrConflict
		}
	}
	m.companies[c.ID] = c
	return nil
}

func (m *Memory) GetCompany(_ context.Context, id string) (erp.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return erp.Company{}, erp.ErrNotFound
	}
	return c, nil
}

func (m *Memory) ListCompanies(_ context.Context) ([]erp.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]erp.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) UpdateCompany(_ context.Context, c erp.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[c.ID]; !ok {
		return erp.ErrNotFound
	}
	for id, other := range m.companies {
		if id != c.ID && other.CNPJ == c.CNPJ {
			return erp.ErrConflict
		}
	}
	m.companies[c.ID] = c
	return nil
}

func (m *Memory) DeleteCompany(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[id]; !ok {
		return erp.ErrNotFound
	}
	for _, cl := range m.clients {
		if cl.CompanyID == id {
			return erp.ErrConflict
		}
	}
	for _, t := range m.transactions {
		if t.CompanyID == id {
			return erp.ErrConflict
		}
	}
	delete(m.companies, id)
	return nil
}

func (m *Memory) CreateClient(_ context.Context, c erp.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[c.CompanyID]; !ok {
		return erp.ErrConflict
	}
	if _, ok := m.clients[c.ID]; ok {
		return erp.ErrConflict
	}
	for _, other := range m.clients {
		if other.CompanyID == c.CompanyID && other.Document == c.Document {
			return erp.ErrConflict
		}
	}
	m.clients[c.ID] = c
	return nil
}

func (m *Memory) GetClient(_ context.Context, id string) (erp.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return erp.Client{}, erp.ErrNotFound
	}
	return c, nil
}

func (m *Memory) ListClients(_ context.Context, companyID string) ([]erp.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]erp.Client, 0, len(m.clients))
	for _, c := range m.clients {
		if companyID == "" || c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) UpdateClient(_ context.Context, c erp.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[c.ID]; !ok {
		return erp.ErrNotFound
	}
	if _, ok := m.companies[c.CompanyID]; !ok {
		return erp.ErrConflict
	}
	for id, other := range m.clients {
		if id != c.ID && other.CompanyID == c.CompanyID && other.Document == c.Document {
			return erp.ErrConflict
		}
	}
	m.clients[c.ID] = c
	return nil
}

func (m *Memory) DeleteClient(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return erp.ErrNotFound
	}
	for _, t := range m.transactions {
		if t.ClientID == id {
			return erp.ErrConflict
		}
	}
	delete(m.clients, id)
	return nil
}

func (m *Memory) CreateProfile(_ context.Context, p erp.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; ok {
		return erp.ErrConflict
	}
	for _, other := range m.profiles {
		if other.Email == p.Email {
			return erp.ErrConflict
		}
	}
	m.profiles[p.ID] = p
	return nil
}

func (m *Memory) GetProfile(_ context.Context, id string) (erp.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return erp.Profile{}, erp.ErrNotFound
	}
	return p, nil
}

func (m *Memory) GetProfileByEmail(_ context.Context, email string) (erp.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return erp.Profile{}, erp.ErrNotFound
}

func (m *Memory) UpdateProfile(_ context.Context, p erp.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; !ok {
		return erp.ErrNotFound
	}
	for id, other := range m.profiles {
		if id != p.ID && other.Email == p.Email {
			return erp.ErrConflict
		}
	}
	m.profiles[p.ID] = p
	return nil
}

func (m *Memory) CreateTransaction(_ context.Context, t erp.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[t.ID]; ok {
		return erp.ErrConflict
	}
	if _, ok := m.companies[t.CompanyID]; !ok {
		return erp.ErrConflict
	}
	if t.ClientID != "" {
		if _, ok := m.clients[t.ClientID]; !ok {
			return erp.ErrConflict
		}
	}
	m.transactions[t.ID] = t
	return nil
}

// ListTransactions returns matches ordered by OccurredAt, newest first.
func (m *Memory) ListTransactions(_ context.Context, f erp.TransactionFilter) ([]erp.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]erp.Transaction, 0)
	for _, t := range m.transactions {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out, nil
}

func (m *Memory) DeleteTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[id]; !ok {
		return erp.ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}
