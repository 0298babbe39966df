package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/parcelscore/internal/model"
)

func writeFixture(t *testing.T, dir string, c model.Category, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, string(c)+".json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFixtureAdapter_Fetch(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, model.CategoryWalkability, `{"walkscore": 92, "transit_score": 40, "description": "Walker's Paradise"}`)

	rec, err := NewFixtureAdapter(model.CategoryWalkability, dir).Fetch(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	walk := rec.(*model.WalkabilityRecord)
	if walk.WalkScore == nil || *walk.WalkScore != 92 {
		t.Errorf("Unexpected walk score: %v", walk.WalkScore)
	}
	if walk.BikeScore != nil {
		t.Errorf("Expected missing bike score to stay nil")
	}
}

func TestFixtureAdapter_Fetch_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, model.CategoryWeather, `{"error": "weather service unavailable"}`)
	writeFixture(t, dir, model.CategorySeismic, `[]`)

	_, err := NewFixtureAdapter(model.CategoryWeather, dir).Fetch(context.Background(), Query{})
	if err == nil || err.Error() != "weather service unavailable" {
		t.Errorf("Expected fixture error, got %v", err)
	}

	if _, err := NewFixtureAdapter(model.CategorySeismic, dir).Fetch(context.Background(), Query{}); err == nil {
		t.Error("Expected decode error")
	}

	if _, err := NewFixtureAdapter(model.CategoryPlaces, dir).Fetch(context.Background(), Query{}); err == nil {
		t.Error("Expected missing fixture error")
	}
}

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, model.CategoryFlood, `{"zone": "X"}`)
	writeFixture(t, dir, model.CategoryWeather, `{"conditions": "Clear"}`)

	cfg := model.DefaultConfig()
	cfg.Sources.FixtureDir = dir
	cfg.Sources.Endpoints = map[string]string{"Weather": "https://weather.example.com/v1"}

	reg, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}

	if reg.Len() != 2 {
		t.Fatalf("Expected 2 adapters, got %v", reg.Categories())
	}
	weather, _ := reg.Lookup(model.CategoryWeather)
	if _, ok := weather.(*HTTPAdapter); !ok {
		t.Errorf("Expected endpoint to win over fixture, got %T", weather)
	}
	flood, _ := reg.Lookup(model.CategoryFlood)
	if _, ok := flood.(*FixtureAdapter); !ok {
		t.Errorf("Expected fixture adapter for flood, got %T", flood)
	}
}

func TestFromConfig_UnknownCategory(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Sources.Endpoints = map[string]string{"zoning": "https://example.com"}

	if _, err := FromConfig(cfg); err == nil {
		t.Error("Expected error for unknown category")
	}
}
