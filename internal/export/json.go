package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/nexus/internal/store"
)

// FormatVersion is written into every backup.
const FormatVersion = 1

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown format")

func ParseFormat(s string) (Format, error) {
	switch s {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

type backup struct {
	ExportedAt string         `json:"exported_at"`
	Version    int            `json:"version"`
	Data       store.Snapshot `json:"data"`
}

type rawBackup struct {
	Version int                        `json:"version"`
	Data    map[string]json.RawMessage `json:"data"`
}

// Write encodes snap as a versioned backup in format f.
func Write(w io.Writer, snap store.Snapshot, f Format, now time.Time) error {
	b := backup{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Version:    FormatVersion,
		Data:       snap,
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	switch f {
	case FormatJSON:
		data = append(data, '\n')
	case FormatYAML:
		// Going through JSON keeps the record field names identical in both formats.
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("convert to yaml: %w", err)
		}
		if data, err = yaml.Marshal(generic); err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Read decodes a backup into its records, keyed by record name. Only the
// records present in the backup are returned.
func Read(r io.Reader, f Format) (map[string]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}

	if f == FormatYAML {
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		if data, err = json.Marshal(generic); err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
	} else if f != FormatJSON {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	var b rawBackup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse backup: %w", err)
	}
	if b.Version > FormatVersion {
		return nil, fmt.Errorf("backup version %d is newer than supported %d", b.Version, FormatVersion)
	}
	if b.Data == nil {
		return nil, fmt.Errorf("parse backup: no data")
	}
	for k, v := range b.Data {
		if string(v) == "null" {
			delete(b.Data, k)
		}
	}
	return b.Data, nil
}

// Import restores the records in a backup through the store. Records the
// backup does not mention keep their current values.
func Import(ctx context.Context, s *store.Store, r io.Reader, f Format) (int, error) {
	items, err := Read(r, f)
	if err != nil {
		return 0, err
	}
	if err := s.SetManyJSON(ctx, items); err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	return len(items), nil
}

// WriteFile writes a backup to path, choosing the format from its extension.
func WriteFile(path string, snap store.Snapshot, now time.Time) error {
	f, err := FormatForPath(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	if err := Write(file, snap, f, now); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// FormatForPath maps .json, .yaml and .yml to a format.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}
