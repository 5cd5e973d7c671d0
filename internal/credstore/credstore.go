// Package credstore owns the durable client-side credentials: the session
// blob and the export token. It is the single access point for both; no
// other package touches the persisted copies directly.
package credstore

import (
	"sync"

	"github.com/hygienequest/dashboard/internal/errs"
	"github.com/hygienequest/dashboard/internal/model"
)

// Store persists the session and export-token credentials across runs.
// A load of a missing or malformed entry returns errs.ErrNoSession
// (sessions) or a nil token (export tokens); malformed persisted copies
// are purged on read.
type Store interface {
	SaveSession(s model.Session) error
	// LoadSession returns the persisted session without checking expiry;
	// expiry is the session manager's concern.
	LoadSession() (*model.Session, error)
	ClearSession() error

	SaveExportToken(t model.ExportToken) error
	LoadExportToken() (*model.ExportToken, error)
	ClearExportToken() error
}

// Memory is an in-process Store for tests.
type Memory struct {
	mu      sync.Mutex
	session *model.Session
	token   *model.ExportToken
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) SaveSession(s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cpy := s
	m.session = &cpy
	return nil
}

func (m *Memory) LoadSession() (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, errs.ErrNoSession
	}
	cpy := *m.session
	return &cpy, nil
}

func (m *Memory) ClearSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func (m *Memory) SaveExportToken(t model.ExportToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cpy := t
	m.token = &cpy
	return nil
}

func (m *Memory) LoadExportToken() (*model.ExportToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil, nil
	}
	cpy := *m.token
	return &cpy, nil
}

func (m *Memory) ClearExportToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}
