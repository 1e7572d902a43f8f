package local

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

// Output formats accepted by Write.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// LoadRequest reads a calculation request from a JSON or YAML file.
func LoadRequest(path string) (types.CalculationRequest, error) {
	var req types.CalculationRequest
	if err := decodeFile(path, &req); err != nil {
		return types.CalculationRequest{}, err
	}
	return req, nil
}

// LoadValve reads one valve geometry from a JSON or YAML file.
func LoadValve(path string) (types.Valve, error) {
	var v types.Valve
	if err := decodeFile(path, &v); err != nil {
		return types.Valve{}, err
	}
	if v.Drawing == "" {
		v.Drawing = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return v, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("parse %q: %w", path, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("parse %q: %w", path, err)
		}
	}
	return nil
}

// Encode writes v to w in format. YAML output keeps the JSON field names so
// both formats describe a result the same way.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q: want json|yaml", format)
	}
}

// WriteFile encodes v and atomically replaces path with the result. A reader
// never sees a partially written file.
func WriteFile(path, format string, v any) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file %q: %w", path, err)
	}
	defer pending.Cleanup() //nolint:errcheck

	if err := Encode(pending, format, v); err != nil {
		return fmt.Errorf("encode %q: %w", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %q: %w", path, err)
	}
	return nil
}

// FormatFor picks the output format from a file extension, falling back to
// def.
func FormatFor(path, def string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return def
}
