package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/parcelscore/internal/model"
)

// FixtureAdapter serves a canned record from <dir>/<category>.json.
// A fixture of the form {"error": "..."} makes Fetch fail with that message.
type FixtureAdapter struct {
	category model.Category
	path     string
}

// NewFixtureAdapter creates a fixture adapter for category under dir
func NewFixtureAdapter(category model.Category, dir string) *FixtureAdapter {
	return &FixtureAdapter{
		category: category,
		path:     filepath.Join(dir, string(category)+".json"),
	}
}

// Category implements Adapter
func (a *FixtureAdapter) Category() model.Category { return a.category }

// Fetch implements Adapter. The file is read on every call so fixtures can
// be edited while a server is running.
func (a *FixtureAdapter) Fetch(ctx context.Context, _ Query) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(a.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no fixture for %s", a.category)
		}
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var failure struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &failure); err == nil && failure.Error != "" {
		return nil, errors.New(failure.Error)
	}

	record := model.NewRecord(a.category)
	if record == nil {
		return nil, fmt.Errorf("unknown category %q", a.category)
	}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", a.path, err)
	}
	return record, nil
}

// FixtureCategories lists the known categories that have a fixture file in dir
func FixtureCategories(dir string) []model.Category {
	var out []model.Category
	for _, c := range model.AllCategories() {
		if _, err := os.Stat(filepath.Join(dir, string(c)+".json")); err == nil {
			out = append(out, c)
		}
	}
	return out
}
