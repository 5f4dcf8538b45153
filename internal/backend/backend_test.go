package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sadopc/nexus/internal/config"
	"github.com/sadopc/nexus/internal/logger"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLiteMemory()
	if err != nil {
		t.Fatalf("new memory backend: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backendContract runs the behavior every Backend must share.
func backendContract(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	got, err := b.Get(ctx, []string{"theme"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result for missing key, got %v", got)
	}

	err = b.Set(ctx, map[string][]byte{
		"theme": []byte(`"light"`),
		"notes": []byte(`"hello"`),
	})
	if err != nil {
		t.Fatal(err)
	}

	got, _ = b.Get(ctx, []string{"theme", "missing"})
	if string(got["theme"]) != `"light"` {
		t.Fatalf("expected light theme, got %q", got["theme"])
	}
	if _, ok := got["missing"]; ok {
		t.Fatal("missing key should be absent from result")
	}

	b.Set(ctx, map[string][]byte{"theme": []byte(`"dark"`)})
	got, _ = b.Get(ctx, []string{"theme"})
	if string(got["theme"]) != `"dark"` {
		t.Fatalf("overwrite failed, got %q", got["theme"])
	}

	all, err := b.Get(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 keys from Get(nil), got %d", len(all))
	}

	if err := b.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	all, _ = b.Get(ctx, nil)
	if len(all) != 0 {
		t.Fatalf("expected no keys after Clear, got %d", len(all))
	}
}

// ============================================================
// SQLite
// ============================================================

func TestSQLiteContract(t *testing.T) {
	backendContract(t, newTestSQLite(t))
}

func TestSQLiteUserVersion(t *testing.T) {
	s := newTestSQLite(t)
	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestSQLiteMigrationIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "nexus.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Set(context.Background(), map[string][]byte{"notes": []byte(`"kept"`)})
	s.Close()

	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	got, _ := s2.Get(context.Background(), []string{"notes"})
	if string(got["notes"]) != `"kept"` {
		t.Fatalf("expected persisted notes, got %q", got["notes"])
	}
}

func TestSQLiteGetEmptyKeyList(t *testing.T) {
	s := newTestSQLite(t)
	s.Set(context.Background(), map[string][]byte{"notes": []byte(`""`)})
	got, err := s.Get(context.Background(), []string{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatal("empty key list should return nothing")
	}
}

// ============================================================
// Local string store
// ============================================================

func TestLocalMemoryContract(t *testing.T) {
	backendContract(t, NewLocal(NewMemoryStrings()))
}

func TestLocalFileContract(t *testing.T) {
	strs, err := NewFileStrings(filepath.Join(t.TempDir(), "local.json"))
	if err != nil {
		t.Fatal(err)
	}
	backendContract(t, NewLocal(strs))
}

func TestLocalUsesPrefix(t *testing.T) {
	strs := NewMemoryStrings()
	l := NewLocal(strs)
	l.Set(context.Background(), map[string][]byte{"todos": []byte(`[]`)})

	if v, ok := strs.GetItem("nexus_todos"); !ok || v != "[]" {
		t.Fatalf("expected prefixed item, got %q (present=%v)", v, ok)
	}
}

func TestLocalClearKeepsForeignKeys(t *testing.T) {
	strs := NewMemoryStrings()
	strs.SetItem("other_app", "1")
	l := NewLocal(strs)
	l.Set(context.Background(), map[string][]byte{"todos": []byte(`[]`)})

	l.Clear(context.Background())
	if _, ok := strs.GetItem("other_app"); !ok {
		t.Fatal("Clear should only remove prefixed keys")
	}
	all, _ := l.Get(context.Background(), nil)
	if len(all) != 0 {
		t.Fatal("prefixed keys should be gone")
	}
}

func TestFileStringsPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	f, _ := NewFileStrings(path)
	f.SetItem("nexus_notes", `"draft"`)

	f2, err := NewFileStrings(path)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := f2.GetItem("nexus_notes"); v != `"draft"` {
		t.Fatalf("expected reloaded value, got %q", v)
	}
}

func TestFileStringsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	if _, err := NewFileStrings(path); err == nil {
		t.Fatal("expected decode error for corrupt file")
	}
}

// ============================================================
// Open / fallback
// ============================================================

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Storage: config.StorageConfig{Backend: backend, DataDir: dir, DBPath: filepath.Join(dir, "nexus.db")},
		Redis:   config.RedisConfig{Addr: "127.0.0.1:1", Prefix: "nexus:"},
	}
}

func TestOpenSQLite(t *testing.T) {
	b := Open(context.Background(), testConfig(t, "sqlite"), logger.Nop())
	defer b.Close()
	if _, ok := b.(*SQLite); !ok {
		t.Fatalf("expected *SQLite, got %T", b)
	}
}

func TestOpenFallsBackToLocal(t *testing.T) {
	cfg := testConfig(t, "redis")
	b := Open(context.Background(), cfg, logger.Nop())
	defer b.Close()
	if _, ok := b.(*Local); !ok {
		t.Fatalf("expected *Local fallback, got %T", b)
	}

	b.Set(context.Background(), map[string][]byte{"notes": []byte(`"x"`)})
	if _, err := os.Stat(LocalFilePath(cfg.Storage.DataDir)); err != nil {
		t.Fatalf("expected local file to be written: %v", err)
	}
}

func TestOpenFallsBackToMemory(t *testing.T) {
	cfg := testConfig(t, "local")
	os.WriteFile(LocalFilePath(cfg.Storage.DataDir), []byte("garbage"), 0o644)

	b := Open(context.Background(), cfg, logger.Nop())
	if err := b.Set(context.Background(), map[string][]byte{"notes": []byte(`"x"`)}); err != nil {
		t.Fatalf("memory fallback should accept writes: %v", err)
	}
}

// ============================================================
// Redis
// ============================================================

func TestRedisKeyMapping(t *testing.T) {
	r := &Redis{prefix: "nexus:"}
	if got := r.redisKey("todos"); got != "nexus:todos" {
		t.Fatalf("unexpected redis key %q", got)
	}
	if got := r.recordKey("nexus:todos"); got != "todos" {
		t.Fatalf("unexpected record key %q", got)
	}
}

func TestRedisContract(t *testing.T) {
	addr := os.Getenv("NEXUS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("NEXUS_TEST_REDIS_ADDR not set")
	}
	r, err := NewRedis(context.Background(), config.RedisConfig{Addr: addr, Prefix: "nexus-test:"})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	r.Clear(context.Background())
	backendContract(t, r)
}
