package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Paths use the JSON field names joined by dots, e.g. "responder.fallback.body".

// GetByPath returns the value at path.
func GetByPath(cfg *Config, path string) (any, error) {
	tree, err := toTree(cfg)
	if err != nil {
		return nil, err
	}

	var node any = tree
	for _, key := range strings.Split(path, ".") {
		section, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: %q is not a section", path, key)
		}
		if node, ok = section[key]; !ok {
			return nil, fmt.Errorf("unknown config path: %s", path)
		}
	}
	return node, nil
}

// SetByPath stores value at path. A string that reads as a bool or number is
// stored as one unless the field is a string. cfg is left unchanged on error.
func SetByPath(cfg *Config, path string, value any) error {
	keys := strings.Split(path, ".")
	for _, k := range keys {
		if k == "" {
			return fmt.Errorf("invalid config path: %q", path)
		}
	}

	tree, err := toTree(cfg)
	if err != nil {
		return err
	}

	section := tree
	for _, key := range keys[:len(keys)-1] {
		child, ok := section[key]
		if !ok {
			child = map[string]any{}
			section[key] = child
		}
		next, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %q is not a section", path, key)
		}
		section = next
	}
	leaf := keys[len(keys)-1]

	section[leaf] = coerce(value)
	updated, err := fromTree(tree)
	if raw, isString := value.(string); err != nil && isString {
		section[leaf] = raw
		updated, err = fromTree(tree)
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	*cfg = *updated
	return nil
}

// ListPaths flattens cfg into path -> value. Empty optional fields are omitted.
func ListPaths(cfg *Config) map[string]any {
	tree, err := toTree(cfg)
	if err != nil {
		return nil
	}
	out := make(map[string]any)
	flatten(out, "", tree)
	return out
}

func flatten(out map[string]any, prefix string, section map[string]any) {
	for key, v := range section {
		if prefix != "" {
			key = prefix + "." + key
		}
		if child, ok := v.(map[string]any); ok {
			flatten(out, key, child)
			continue
		}
		out[key] = v
	}
}

func toTree(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// fromTree rebuilds a Config, rejecting keys the Config does not have.
func fromTree(tree map[string]any) (*Config, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func coerce(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
