package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/psico-client/internal/infrastructure/config"
	"github.com/nerrad567/psico-client/internal/infrastructure/logging"
)

// failingStorage fails every operation with err.
type failingStorage struct {
	err error
}

func (f failingStorage) Load(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStorage) Save(context.Context, string, string) error { return f.err }
func (f failingStorage) Delete(context.Context, string) error { return f.err }

func TestTokenStore_SetClear(t *testing.T) {
	store := NewTokenStore(context.Background(), NewMemoryStorage(), nil)

	if store.HasToken() {
		t.Fatal("new store should be empty")
	}

	for _, token := range []string{"x", "a.b.c", strings.Repeat("t", 4096)} {
		store.Set(token)
		if !store.HasToken() {
			t.Errorf("HasToken() = false after Set(%.10q)", token)
		}
		if got, _ := store.Get(); got != token {
			t.Errorf("Get() = %.10q, want %.10q", got, token)
		}

		store.Clear()
		if store.HasToken() {
			t.Errorf("HasToken() = true after Clear()")
		}
		if got, ok := store.Get(); ok || got != "" {
			t.Errorf("Get() after Clear() = (%q, %v), want empty", got, ok)
		}
	}
}

func TestTokenStore_SetEmptyClears(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewTokenStore(context.Background(), storage, nil)

	store.Set("x")
	store.Set("")

	if store.HasToken() {
		t.Error("HasToken() = true after Set(\"\")")
	}
	if _, found, _ := storage.Load(context.Background(), StorageKey); found {
		t.Error("storage still holds a value after Set(\"\")")
	}
}

func TestTokenStore_PersistsUnderFixedKey(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	NewTokenStore(ctx, storage, nil).Set("persisted-token")

	value, found, err := storage.Load(ctx, "psico_app_token")
	if err != nil || !found || value != "persisted-token" {
		t.Fatalf("storage.Load() = (%q, %v, %v), want persisted-token", value, found, err)
	}

	// A fresh store restores it once at construction
	restored := NewTokenStore(ctx, storage, nil)
	if got, ok := restored.Get(); !ok || got != "persisted-token" {
		t.Errorf("restored Get() = (%q, %v), want persisted-token", got, ok)
	}

	restored.Clear()
	if _, found, _ := storage.Load(ctx, StorageKey); found {
		t.Error("Clear() did not erase the persisted value")
	}
}

func TestTokenStore_NilStorageIsMemoryOnly(t *testing.T) {
	store := NewTokenStore(context.Background(), nil, nil)

	store.Set("x")
	if got, ok := store.Get(); !ok || got != "x" {
		t.Errorf("Get() = (%q, %v), want x", got, ok)
	}
	store.Clear()
	if store.HasToken() {
		t.Error("HasToken() = true after Clear()")
	}
}

func TestTokenStore_StorageFailureDegrades(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, config.LoggingConfig{Level: "warn"}, "test")

	store := NewTokenStore(context.Background(), failingStorage{err: errors.New("disk full")}, logger)

	if store.HasToken() {
		t.Fatal("store should start empty when load fails")
	}

	store.Set("memory-only")
	if got, ok := store.Get(); !ok || got != "memory-only" {
		t.Errorf("Get() = (%q, %v), want memory-only", got, ok)
	}

	store.Clear()
	if store.HasToken() {
		t.Error("HasToken() = true after Clear() with failing storage")
	}

	out := buf.String()
	for _, want := range []string{"loading persisted session failed", "persisting session failed", "erasing persisted session failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q", want)
		}
	}
	if strings.Contains(out, "memory-only") {
		t.Error("log output leaked the token")
	}
}

func TestTokenStore_ConcurrentAccess(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewTokenStore(context.Background(), storage, nil)

	tokens := []string{"alpha.one.sig", "beta.two.sig", "gamma.three.sig"}
	valid := map[string]bool{"": true}
	for _, tok := range tokens {
		valid[tok] = true
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if j%10 == 9 {
					store.Clear()
					continue
				}
				store.Set(tokens[(i+j)%len(tokens)])
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got, _ := store.Get()
				if !valid[got] {
					t.Errorf("Get() observed torn value %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()

	// Memory and storage agree once writers are done
	got, _ := store.Get()
	persisted, _, _ := storage.Load(context.Background(), StorageKey)
	if got != persisted {
		t.Errorf("memory %q and storage %q diverged", got, persisted)
	}
}
