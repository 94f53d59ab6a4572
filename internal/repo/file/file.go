package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/hamed0406/sitemonitor/internal/domain"
	"github.com/hamed0406/sitemonitor/internal/repo"
)

var _ repo.HistoryStore = (*Store)(nil)

// FileMode is applied to the saved file so readers running as another
// user (the API, a web server) can open it.
const FileMode os.FileMode = 0o644

// ErrCorrupt is returned by Load when the file exists but cannot be decoded.
var ErrCorrupt = errors.New("history file corrupt")

// Store keeps the database in a single JSON file:
// {"<url>": [{"date": ..., "status": ..., "time": ...}, ...]}.
type Store struct {
	Path string
}

func New(path string) *Store {
	return &Store{Path: path}
}

// Load never fails hard: a missing file is an empty database, and an
// unreadable or corrupt one is an empty database plus an error.
func (s *Store) Load(ctx context.Context) (domain.Database, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewDatabase(), nil
	}
	if err != nil {
		return domain.NewDatabase(), fmt.Errorf("read %s: %w", s.Path, err)
	}

	var raw map[string]domain.History
	if err := json.Unmarshal(b, &raw); err != nil {
		return domain.NewDatabase(), fmt.Errorf("%w: %s: %v", ErrCorrupt, s.Path, err)
	}

	db := make(domain.Database, len(raw))
	for url, h := range raw {
		if over := len(h) - domain.MaxHistory; over > 0 {
			h = h[over:]
		}
		if h == nil {
			h = domain.History{}
		}
		db[url] = h
	}
	return db, nil
}

// Save writes to a temp file in the same directory and renames it over Path.
func (s *Store) Save(ctx context.Context, db domain.Database) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		return multierr.Append(fmt.Errorf("write temp: %w", err), tmp.Close())
	}
	if err = tmp.Chmod(FileMode); err != nil {
		return multierr.Append(fmt.Errorf("chmod temp: %w", err), tmp.Close())
	}
	if err = tmp.Sync(); err != nil {
		return multierr.Append(fmt.Errorf("sync temp: %w", err), tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
