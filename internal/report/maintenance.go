package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Maintenance is one announced maintenance window shown on the dashboard.
type Maintenance struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

// LoadMaintenance reads a JSON array of maintenance entries. An empty path
// or a missing file yields no entries.
func LoadMaintenance(path string) ([]Maintenance, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Maintenance
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}
