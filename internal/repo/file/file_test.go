package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/hamed0406/sitemonitor/internal/domain"
)

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "database.json"))
	db, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(db) != 0 {
		t.Fatalf("want empty db, got %d urls", len(db))
	}
}

func TestStore_CorruptFileDegradesToEmpty(t *testing.T) {
	for name, content := range map[string]string{
		"empty":   "",
		"garbage": "{not json",
		"array":   "[1,2,3]",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "database.json")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			db, err := New(path).Load(context.Background())
			if !errors.Is(err, ErrCorrupt) {
				t.Fatalf("want ErrCorrupt, got %v", err)
			}
			if db == nil || len(db) != 0 {
				t.Fatalf("want usable empty db, got %+v", db)
			}
		})
	}
}

func TestStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "database.json")
	s := New(path)

	when := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	db := domain.NewDatabase()
	db.Append("https://shop.example/products/tea", domain.ProbeOutcome{Timestamp: when, StatusCode: 200, LatencyMS: 87})
	db.Append("https://shop.example/pages/about", domain.ProbeOutcome{Timestamp: when, StatusCode: 0})

	if err := s.Save(ctx, db); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h := got["https://shop.example/products/tea"]
	if len(h) != 1 || h[0].StatusCode != 200 || h[0].LatencyMS != 87 || !h[0].Timestamp.Equal(when) {
		t.Fatalf("unexpected history after reload: %+v", h)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 urls, got %d", len(got))
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestStore_LoadTrimsOversizedHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "database.json")

	// bypass Append to write an over-long history
	long := make(domain.History, 70)
	for i := range long {
		long[i] = domain.ProbeOutcome{StatusCode: 200, LatencyMS: int64(i)}
	}
	if err := New(path).Save(ctx, domain.Database{"https://x.example": long}); err != nil {
		t.Fatal(err)
	}

	db, err := New(path).Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	h := db["https://x.example"]
	if len(h) != domain.MaxHistory || h[0].LatencyMS != 20 {
		t.Fatalf("want last %d entries starting at 20, got len=%d first=%d", domain.MaxHistory, len(h), h[0].LatencyMS)
	}
}

func TestStore_SaveFailsWhenDirectoryMissing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope", "database.json"))
	if err := s.Save(context.Background(), domain.NewDatabase()); err == nil {
		t.Fatalf("expected error writing into a missing directory")
	}
}

func TestStore_SaveLeavesFileWorldReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "database.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	db := domain.NewDatabase()
	db.Append("https://x.example/", domain.ProbeOutcome{StatusCode: 200})
	if err := New(path).Save(context.Background(), db); err != nil {
		t.Fatalf("Save: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := fi.Mode().Perm(); got != FileMode {
		t.Fatalf("want mode %v, got %v", FileMode, got)
	}
}
