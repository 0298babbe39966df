package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/parcelscore/internal/match"
	"github.com/ppiankov/parcelscore/internal/model"
)

func newTestRedisBackend(t *testing.T) *RedisBackend {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisBackendFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestRedisBackend_LoadSaveDelete(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	b, err := NewRedisBackend(ctx, mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisBackend: %v", err)
	}
	defer func() { _ = b.Close() }()

	key := Key("alice")

	if _, err := b.Load(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load missing: expected ErrNotFound, got %v", err)
	}

	if err := b.Save(ctx, key, []byte(`{"user_id":"alice"}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := mr.Get(key)
	if err != nil {
		t.Fatalf("value not in redis: %v", err)
	}
	if got != `{"user_id":"alice"}` {
		t.Errorf("stored value = %q", got)
	}
	if ttl := mr.TTL(key); ttl != 0 {
		t.Errorf("expected no expiry, got %v", ttl)
	}

	data, err := b.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != `{"user_id":"alice"}` {
		t.Errorf("loaded value = %q", data)
	}

	if err := b.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists(key) {
		t.Error("key still present after Delete")
	}
	if err := b.Delete(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete missing: expected ErrNotFound, got %v", err)
	}

	if err := b.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestRedisBackend_ServerErrors(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	b := NewRedisBackendFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer func() { _ = b.Close() }()

	mr.SetError("LOADING dataset in memory")

	_, err := b.Load(ctx, Key("alice"))
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a server error, got %v", err)
	}
	if !strings.Contains(err.Error(), "redis get") {
		t.Errorf("error should name the command: %v", err)
	}

	if err := b.Save(ctx, Key("alice"), []byte("{}")); err == nil || !strings.Contains(err.Error(), "redis set") {
		t.Errorf("expected redis set error, got %v", err)
	}
	if err := b.Delete(ctx, Key("alice")); err == nil || !strings.Contains(err.Error(), "redis del") {
		t.Errorf("expected redis del error, got %v", err)
	}
}

func TestOpen_Redis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	s, err := Open(ctx, model.StoreConfig{Backend: "redis", RedisAddress: mr.Addr()}, nil)
	if err != nil {
		t.Fatalf("Open redis: %v", err)
	}
	defer func() { _ = s.Close() }()

	prefs, err := s.Get(ctx, "bob")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if prefs.Preset != match.PresetBalanced {
		t.Errorf("Preset = %q, want balanced", prefs.Preset)
	}
	if !mr.Exists(Key("bob")) {
		t.Error("defaults were not persisted to redis")
	}

	if err := s.Delete(ctx, "bob"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists(Key("bob")) {
		t.Error("key still present after Delete")
	}
}
