package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// LocalPrefix namespaces every record key in a local string store.
const LocalPrefix = "nexus_"

// StringStore is a same-origin string store, the shape of a browser's
// localStorage.
type StringStore interface {
	GetItem(key string) (string, bool)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Keys() []string
}

// Local adapts a StringStore to Backend. Payloads are stored as strings
// under LocalPrefix+key.
type Local struct {
	strs StringStore
}

func NewLocal(strs StringStore) *Local {
	return &Local{strs: strs}
}

// LocalFilePath returns the file used by the local fallback inside dataDir.
func LocalFilePath(dataDir string) string {
	return filepath.Join(dataDir, "local.json")
}

func (l *Local) Get(_ context.Context, keys []string) (map[string][]byte, error) {
	if keys == nil {
		for _, k := range l.strs.Keys() {
			if strings.HasPrefix(k, LocalPrefix) {
				keys = append(keys, strings.TrimPrefix(k, LocalPrefix))
			}
		}
	}

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := l.strs.GetItem(LocalPrefix + k); ok {
			out[k] = []byte(v)
		}
	}
	return out, nil
}

func (l *Local) Set(_ context.Context, items map[string][]byte) error {
	for k, v := range items {
		if err := l.strs.SetItem(LocalPrefix+k, string(v)); err != nil {
			return fmt.Errorf("set %q: %w", k, err)
		}
	}
	return nil
}

func (l *Local) Clear(_ context.Context) error {
	for _, k := range l.strs.Keys() {
		if !strings.HasPrefix(k, LocalPrefix) {
			continue
		}
		if err := l.strs.RemoveItem(k); err != nil {
			return fmt.Errorf("remove %q: %w", k, err)
		}
	}
	return nil
}

func (l *Local) Close() error { return nil }

// MemoryStrings is a process-local StringStore.
type MemoryStrings struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStrings() *MemoryStrings {
	return &MemoryStrings{items: make(map[string]string)}
}

func (m *MemoryStrings) GetItem(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *MemoryStrings) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStrings) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *MemoryStrings) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FileStrings is a StringStore persisted as one JSON object on disk. Every
// mutation rewrites the file through a temp file and rename.
type FileStrings struct {
	path string
	mem  *MemoryStrings
	mu   sync.Mutex
}

// NewFileStrings loads path if it exists. A missing file is an empty store;
// an unreadable one is an error.
func NewFileStrings(path string) (*FileStrings, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create local store directory: %w", err)
	}

	f := &FileStrings{path: path, mem: NewMemoryStrings()}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read local store: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &f.mem.items); err != nil {
			return nil, fmt.Errorf("decode local store: %w", err)
		}
		if f.mem.items == nil {
			f.mem.items = make(map[string]string)
		}
	}
	return f, nil
}

func (f *FileStrings) GetItem(key string) (string, bool) {
	return f.mem.GetItem(key)
}

func (f *FileStrings) SetItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mem.SetItem(key, value)
	return f.flush()
}

func (f *FileStrings) RemoveItem(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mem.RemoveItem(key)
	return f.flush()
}

func (f *FileStrings) Keys() []string {
	return f.mem.Keys()
}

func (f *FileStrings) flush() error {
	f.mem.mu.RLock()
	data, err := json.MarshalIndent(f.mem.items, "", "  ")
	f.mem.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode local store: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write local store: %w", err)
	}
	return os.Rename(tmp, f.path)
}
