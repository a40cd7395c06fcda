package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	cm, err := NewManager(filepath.Join(t.TempDir(), "nested", "cache.db"), ttl)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { cm.Close() })
	return cm
}

func TestKey(t *testing.T) {
	a := Key("# Title")
	if len(a) != 64 {
		t.Errorf("Key() length = %d, want 64", len(a))
	}
	if a != Key("# Title") {
		t.Error("Key() is not deterministic")
	}
	if a == Key("# Title ") {
		t.Error("Key() ignores trailing whitespace")
	}
}

func TestScopedKey(t *testing.T) {
	local := ScopedKey("local", "# Title")
	if local == ScopedKey("remote https://a.example", "# Title") {
		t.Error("ScopedKey() ignores the renderer scope")
	}
	if ScopedKey("remote https://a.example", "# Title") == ScopedKey("remote https://b.example", "# Title") {
		t.Error("ScopedKey() ignores the endpoint")
	}
	if ScopedKey("ab", "c") == ScopedKey("a", "bc") {
		t.Error("ScopedKey() scope and source run together")
	}
	if local != ScopedKey("local", "# Title") {
		t.Error("ScopedKey() is not deterministic")
	}
}

func TestNewManagerDefaultsTTL(t *testing.T) {
	cm := newTestManager(t, 0)
	if cm.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", cm.TTL(), DefaultTTL)
	}
}

func TestPutGet(t *testing.T) {
	cm := newTestManager(t, time.Hour)
	key := Key("**bold**")

	got, err := cm.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Get() on empty cache = %+v, want nil", got)
	}

	if err := cm.Put(key, "<p><strong>bold</strong></p>", "remote"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err = cm.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() = nil, want entry")
	}
	if got.HTML != "<p><strong>bold</strong></p>" || got.Renderer != "remote" {
		t.Errorf("Get() = %+v", got)
	}

	if err := cm.Put(key, "<p>replaced</p>", "local"); err != nil {
		t.Fatalf("Put() replace error = %v", err)
	}
	got, _ = cm.Get(key)
	if got == nil || got.HTML != "<p>replaced</p>" {
		t.Errorf("Get() after replace = %+v", got)
	}

	count, err := cm.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestExpiredEntriesAreMissesAndPurged(t *testing.T) {
	cm := newTestManager(t, time.Hour)
	fresh, stale := Key("fresh"), Key("stale")

	if err := cm.Put(fresh, "<p>fresh</p>", "remote"); err != nil {
		t.Fatal(err)
	}
	if err := cm.Put(stale, "<p>stale</p>", "remote"); err != nil {
		t.Fatal(err)
	}
	if err := cm.touch(stale, time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatal(err)
	}

	if got, _ := cm.Get(stale); got != nil {
		t.Errorf("Get(stale) = %+v, want nil", got)
	}

	info, err := cm.GetCacheInfo("test.db")
	if err != nil {
		t.Fatalf("GetCacheInfo() error = %v", err)
	}
	if info.Entries != 2 || info.Fresh != 1 {
		t.Errorf("GetCacheInfo() = %+v, want 2 entries with 1 fresh", info)
	}

	removed, err := cm.Purge()
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Purge() removed %d, want 1", removed)
	}
	if got, _ := cm.Get(fresh); got == nil {
		t.Error("Purge() removed a fresh entry")
	}
}

func TestClear(t *testing.T) {
	cm := newTestManager(t, time.Hour)
	for _, s := range []string{"a", "b", "c"} {
		if err := cm.Put(Key(s), "<p>"+s+"</p>", "local"); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := cm.Clear()
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("Clear() removed %d, want 3", removed)
	}
	if count, _ := cm.Count(); count != 0 {
		t.Errorf("Count() after Clear = %d, want 0", count)
	}
}
