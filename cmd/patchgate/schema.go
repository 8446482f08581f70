package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/patchgate/patchgate"
)

// loadSchema reads a schema document. JSON and YAML are accepted; YAML
// documents are normalized so nested mappings use string keys, matching what
// the engine expects from decoded JSON.
func loadSchema(path string) (patchgate.Schema, error) {
	if path == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse YAML schema: %w", err)
		}
		s, ok := normalizeYAML(doc).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schema document %s is not a mapping", path)
		}
		return s, nil
	default:
		var s patchgate.Schema
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse JSON schema: %w", err)
		}
		return s, nil
	}
}

// normalizeYAML rewrites map[any]any nodes into map[string]any. yaml.v3
// produces string-keyed maps for ordinary documents, but merge keys and
// non-scalar keys can still surface the any-keyed form.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
