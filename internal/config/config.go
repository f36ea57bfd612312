// Package config loads tsmap defaults from YAML files into kong flags.
//
// A config file sets flags by name, with dashes or underscores:
//
//	store: badger
//	verbose: true
//	deps:
//	  mode: dir
//
// Keys nested under a command name apply to that command's flags only.
// Flags given on the command line win over the file.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// Paths are the config files read at startup, lowest precedence last.
var Paths = []string{".tsmap.yaml", "~/.tsmap.yaml"}

// YAML is a kong.ConfigurationLoader for YAML config files.
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	var f kong.ResolverFunc = func(ctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if cmd := commandName(parent); cmd != "" {
			if section, ok := values[cmd].(map[string]any); ok {
				if v, ok := lookup(section, flag.Name); ok {
					return v, nil
				}
			}
		}
		if v, ok := lookup(values, flag.Name); ok {
			return v, nil
		}
		return nil, nil
	}
	return f, nil
}

// lookup finds name as written, with dashes as underscores, or as a
// dotted path into nested maps. Scalars come back as strings.
func lookup(values map[string]any, name string) (any, bool) {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		if v, ok := values[key]; ok {
			if _, nested := v.(map[string]any); nested {
				continue
			}
			return scalar(v), true
		}
	}

	var raw any = values
	for _, part := range strings.Split(name, ".") {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, false
		}
		if raw, ok = m[part]; !ok {
			return nil, false
		}
	}
	if _, nested := raw.(map[string]any); nested {
		return nil, false
	}
	return scalar(raw), true
}

// scalar renders YAML values the way they would be typed on the command line.
func scalar(v any) any {
	switch v := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, len(v))
		for i, p := range v {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}

func commandName(parent *kong.Path) string {
	if parent == nil || parent.Command == nil {
		return ""
	}
	return parent.Command.Name
}

// Marshal renders v as YAML, for printing config snippets.
func Marshal(v any) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return out, nil
}
