// Package cfgfile decodes the YAML or JSON files that declare watches and
// publishers.
package cfgfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for file extensions other than .yaml, .yml and .json.
var ErrUnsupportedFormat = errors.New("unsupported file format (expected YAML or JSON)")

// Read loads path into out. what names the file in error messages.
func Read(path, what string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%s file path is empty", what)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s file: %w", what, err)
	}
	if err := Decode(raw, filepath.Ext(path), out); err != nil {
		return fmt.Errorf("%s file %s: %w", what, filepath.Base(path), err)
	}
	return nil
}

// Decode unmarshals data by extension. An empty extension is read as YAML,
// which also accepts JSON documents.
func Decode(data []byte, ext string, out any) error {
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".json":
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
	return nil
}

// Trimmed trims every value, dropping blanks and repeats while keeping order.
func Trimmed(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
