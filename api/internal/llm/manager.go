package llm

import "sync"

// Manager keeps a per-conversation engine choice on top of a default.
type Manager struct {
	def Completer
	m   sync.Map // key -> Completer
}

func NewManager(defaultEngine Completer) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(key int64) Completer {
	if v, ok := m.m.Load(key); ok {
		return v.(Completer)
	}
	return m.def
}

func (m *Manager) Set(key int64, c Completer) {
	if c == nil {
		m.m.Delete(key)
		return
	}
	m.m.Store(key, c)
}
