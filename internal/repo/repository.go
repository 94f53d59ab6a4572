package repo

import (
	"context"

	"github.com/hamed0406/sitemonitor/internal/domain"
)

// HistoryStore persists the whole monitor database. One run owns the store
// for its lifetime; concurrent writers are excluded by deployment, not here.
type HistoryStore interface {
	// Load returns the stored database. A non-nil error together with a
	// usable (possibly empty) database means the load degraded.
	Load(ctx context.Context) (domain.Database, error)
	// Save replaces the stored database atomically.
	Save(ctx context.Context, db domain.Database) error
}
