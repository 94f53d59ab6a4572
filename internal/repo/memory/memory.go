package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/sitemonitor/internal/domain"
	"github.com/hamed0406/sitemonitor/internal/repo"
)

var _ repo.HistoryStore = (*Store)(nil)

// Store keeps the database in process. Load and Save copy, so callers never
// share slices with the store.
type Store struct {
	mu      sync.RWMutex
	db      domain.Database
	saves   int
	SaveErr error // returned by Save when set
	LoadErr error // returned by Load (with an empty db) when set
}

func New() *Store {
	return &Store{db: domain.NewDatabase()}
}

// Seed replaces the stored database.
func (m *Store) Seed(db domain.Database) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.db = db.Snapshot()
}

func (m *Store) Load(ctx context.Context) (domain.Database, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LoadErr != nil {
		return domain.NewDatabase(), m.LoadErr
	}
	return m.db.Snapshot(), nil
}

func (m *Store) Save(ctx context.Context, db domain.Database) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.db = db.Snapshot()
	m.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (m *Store) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
