package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/parcelscore/internal/match"
	"github.com/ppiankov/parcelscore/internal/model"
)

// ErrNotFound is returned by a Backend when a key has never been saved
var ErrNotFound = errors.New("preferences not found")

// Backend persists encoded preferences by key
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key derives the backend key for a user
func Key(userID string) string {
	hash := sha256.Sum256([]byte(userID))
	return "parcelscore:v1:prefs:" + hex.EncodeToString(hash[:])
}

// Store keeps one ScoringPreferences per user. A user seen for the first
// time gets the balanced defaults, which are persisted immediately.
type Store struct {
	backend Backend
	catalog *match.Catalog
	engine  *match.Engine
	now     func() time.Time
}

// New wraps a backend. A nil catalog uses the built-in presets.
func New(backend Backend, catalog *match.Catalog) *Store {
	if catalog == nil {
		catalog = match.DefaultCatalog()
	}
	return &Store{
		backend: backend,
		catalog: catalog,
		engine:  match.NewEngine(),
		now:     time.Now,
	}
}

// Open builds a store for the configured backend
func Open(ctx context.Context, cfg model.StoreConfig, catalog *match.Catalog) (*Store, error) {
	var (
		backend Backend
		err     error
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		backend = NewMemoryBackend()
	case "file":
		backend, err = NewFileBackend(cfg.Dir)
	case "redis":
		backend, err = NewRedisBackend(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	return New(backend, catalog), nil
}

// Catalog returns the presets this store applies
func (s *Store) Catalog() *match.Catalog {
	return s.catalog
}

// Get returns the user's preferences, creating defaults on first use
func (s *Store) Get(ctx context.Context, userID string) (model.ScoringPreferences, error) {
	if err := checkUser(userID); err != nil {
		return model.ScoringPreferences{}, err
	}

	data, err := s.backend.Load(ctx, Key(userID))
	if errors.Is(err, ErrNotFound) {
		prefs := match.DefaultPreferences(userID, s.now().UTC())
		if err := s.save(ctx, prefs); err != nil {
			return model.ScoringPreferences{}, err
		}
		return prefs, nil
	}
	if err != nil {
		return model.ScoringPreferences{}, fmt.Errorf("load preferences: %w", err)
	}

	var prefs model.ScoringPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return model.ScoringPreferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	return prefs, nil
}

// Put replaces the user's preferences. The weight vector must be scorable.
func (s *Store) Put(ctx context.Context, prefs model.ScoringPreferences) (model.ScoringPreferences, error) {
	if err := checkUser(prefs.UserID); err != nil {
		return model.ScoringPreferences{}, err
	}
	if err := s.engine.Validate(prefs); err != nil {
		return model.ScoringPreferences{}, err
	}

	out := prefs.Clone()
	out.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, out); err != nil {
		return model.ScoringPreferences{}, err
	}
	return out, nil
}

// ApplyPreset merges a named preset into the user's stored preferences
func (s *Store) ApplyPreset(ctx context.Context, userID, name string) (model.ScoringPreferences, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return model.ScoringPreferences{}, err
	}

	merged, err := s.catalog.Apply(current, name)
	if err != nil {
		return model.ScoringPreferences{}, err
	}

	return s.Put(ctx, merged)
}

// Delete forgets the user's preferences. Deleting an unknown user is not an error.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	err := s.backend.Delete(ctx, Key(userID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete preferences: %w", err)
	}
	return nil
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) save(ctx context.Context, prefs model.ScoringPreferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := s.backend.Save(ctx, Key(prefs.UserID), data); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func checkUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &model.ValidationError{Field: "user_id", Message: "is required"}
	}
	return nil
}
