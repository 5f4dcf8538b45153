package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/sadopc/nexus/internal/config"
	"github.com/sadopc/nexus/internal/credentials"
	"github.com/sadopc/nexus/internal/logger"
	"github.com/sadopc/nexus/internal/store"
	"github.com/sadopc/nexus/internal/weather"
)

// memoryOpener hands every command the same in-memory store.
func memoryOpener(t *testing.T) (Opener, *store.Store) {
	t.Helper()
	s := store.NewMemory()
	open := func(context.Context) (*Env, error) {
		return &Env{Config: &config.Config{}, Log: logger.Nop(), Store: s}, nil
	}
	return open, s
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// ============================================================
// Records
// ============================================================

func TestGetListsKeys(t *testing.T) {
	open, _ := memoryOpener(t)

	out, err := run(t, open, "get")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range store.KeyNames() {
		if !strings.Contains(out, name) {
			t.Fatalf("missing key %q in:\n%s", name, out)
		}
	}
}

func TestGetPrintsDefault(t *testing.T) {
	open, _ := memoryOpener(t)

	out, err := run(t, open, "get", "pomodoroSettings")
	if err != nil {
		t.Fatal(err)
	}
	var got store.PomodoroSettings
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got != store.KeyPomodoroSettings.Default() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestGetUnknownKey(t *testing.T) {
	open, _ := memoryOpener(t)

	if _, err := run(t, open, "get", "nope"); !errors.Is(err, store.ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}

func TestSetValidates(t *testing.T) {
	open, s := memoryOpener(t)
	ctx := context.Background()

	if _, err := run(t, open, "set", "theme", `"light"`); err != nil {
		t.Fatal(err)
	}
	if got := store.Get(ctx, s, store.KeyTheme); got != store.ThemeLight {
		t.Fatalf("expected light theme, got %q", got)
	}

	if _, err := run(t, open, "set", "theme", `"sepia"`); err == nil {
		t.Fatal("invalid theme should be rejected")
	}
	if got := store.Get(ctx, s, store.KeyTheme); got != store.ThemeLight {
		t.Fatal("rejected value should not be written")
	}
}

func TestDumpAndImport(t *testing.T) {
	open, s := memoryOpener(t)
	ctx := context.Background()
	if err := store.Set(ctx, s, store.KeyNotes, "remember the milk"); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, open, "dump", "--format", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "remember the milk") || !strings.Contains(out, "exported_at:") {
		t.Fatalf("unexpected dump:\n%s", out)
	}

	path := filepath.Join(t.TempDir(), "backup.yaml")
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, open, "reset", "--yes"); err != nil {
		t.Fatal(err)
	}
	if got := store.Get(ctx, s, store.KeyNotes); got != "" {
		t.Fatalf("reset should clear notes, got %q", got)
	}

	out, err = run(t, open, "import", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Imported") {
		t.Fatalf("unexpected import output: %q", out)
	}
	if got := store.Get(ctx, s, store.KeyNotes); got != "remember the milk" {
		t.Fatalf("notes not restored, got %q", got)
	}
}

func TestDumpRejectsUnknownFormat(t *testing.T) {
	open, _ := memoryOpener(t)

	if _, err := run(t, open, "dump", "--format", "xml"); err == nil {
		t.Fatal("expected an error for xml")
	}
}

func TestResetNeedsConfirmation(t *testing.T) {
	open, s := memoryOpener(t)
	ctx := context.Background()
	if err := store.Set(ctx, s, store.KeyNotes, "keep"); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, open, "reset"); err == nil {
		t.Fatal("reset without --yes should fail")
	}
	if got := store.Get(ctx, s, store.KeyNotes); got != "keep" {
		t.Fatal("nothing should be cleared")
	}
}

// ============================================================
// Export
// ============================================================

func TestExportLinksCSV(t *testing.T) {
	open, _ := memoryOpener(t)

	out, err := run(t, open, "export", "csv", "links")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 || lines[1] != "0,Google,https://google.com" {
		t.Fatalf("unexpected CSV:\n%s", out)
	}
}

func TestExportTodosToFile(t *testing.T) {
	open, s := memoryOpener(t)
	if _, err := s.CreateTodo(context.Background(), "Write tests", "work"); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "todos.csv")
	out, err := run(t, open, "export", "csv", "todos", "-o", path)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Fatalf("nothing should go to stdout, got %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Write tests,work,false") {
		t.Fatalf("unexpected CSV:\n%s", data)
	}
}

func TestExportRejectsUnknownTable(t *testing.T) {
	open, _ := memoryOpener(t)

	if _, err := run(t, open, "export", "csv", "notes"); err == nil {
		t.Fatal("expected an error for an unknown table")
	}
}

// ============================================================
// Todos
// ============================================================

func TestTodoLifecycle(t *testing.T) {
	open, s := memoryOpener(t)
	ctx := context.Background()

	if _, err := run(t, open, "todo", "add", "-c", "urgent", "Pay", "rent"); err != nil {
		t.Fatal(err)
	}
	todos := store.Get(ctx, s, store.KeyTodos)
	if len(todos) != 1 || todos[0].Text != "Pay rent" || todos[0].Category != "urgent" {
		t.Fatalf("unexpected todos: %+v", todos)
	}
	id := shortID(todos[0].ID)

	out, err := run(t, open, "todo", "done", id)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "is done") {
		t.Fatalf("unexpected output: %q", out)
	}

	out, err = run(t, open, "todo", "ls")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "[x] "+id) || !strings.Contains(out, "1/1 done") {
		t.Fatalf("unexpected listing:\n%s", out)
	}

	if _, err := run(t, open, "todo", "rm", id); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, open, "todo", "ls")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No todos") {
		t.Fatalf("expected empty listing, got %q", out)
	}
}

func TestTodoUnknownID(t *testing.T) {
	open, _ := memoryOpener(t)

	if _, err := run(t, open, "todo", "done", "missing"); !errors.Is(err, store.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
}

// ============================================================
// Weather and secrets
// ============================================================

func TestWeatherNotConfigured(t *testing.T) {
	keyring.MockInit()
	open, _ := memoryOpener(t)

	_, err := run(t, open, "weather")
	if !errors.Is(err, weather.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSecretSetAndDelete(t *testing.T) {
	keyring.MockInit()
	open, _ := memoryOpener(t)

	if _, err := run(t, open, "secret", "set", "weather", "abc123"); err != nil {
		t.Fatal(err)
	}
	if got, err := (credentials.WeatherKey{}).APIKey(); err != nil || got != "abc123" {
		t.Fatalf("expected stored key, got %q (%v)", got, err)
	}
	if _, err := run(t, open, "secret", "delete", "weather"); err != nil {
		t.Fatal(err)
	}
	if _, err := credentials.Get(credentials.WeatherAPIKeyName); !errors.Is(err, credentials.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSecretUnknownName(t *testing.T) {
	open, _ := memoryOpener(t)

	if _, err := run(t, open, "secret", "set", "github", "x"); err == nil {
		t.Fatal("expected an error for an unknown secret")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("got %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("got %q", got)
	}
}
