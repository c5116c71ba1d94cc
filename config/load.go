package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	opts "github.com/goliatone/go-options"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes environment overrides, e.g. GAMIFICATION_STREAK_TIMEZONE.
const EnvPrefix = "GAMIFICATION_"

// LookupEnv resolves one environment variable.
type LookupEnv func(key string) (string, bool)

// Load layers the defaults, the TOML file at path (skipped when empty) and
// environment overrides, then validates the result. A nil lookup reads the
// process environment.
func Load(path string, lookup LookupEnv) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	defaults, err := flattenConfig(Default())
	if err != nil {
		return Config{}, err
	}

	layers := []opts.Layer[map[string]any]{
		newLayer("defaults", opts.ScopePrioritySystem, defaults),
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		var doc map[string]any
		if err := toml.Unmarshal(raw, &doc); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		layers = append(layers, newLayer("file", opts.ScopePriorityTenant, flatten("", doc)))
	}
	env, err := envOverrides(defaults, lookup)
	if err != nil {
		return Config{}, err
	}
	layers = append(layers, newLayer("env", opts.ScopePriorityUser, env))

	stack, err := opts.NewStack(layers...)
	if err != nil {
		return Config{}, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, err
	}

	cfg, err := decode(unflatten(merged.Value))
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newLayer(name string, priority int, payload map[string]any) opts.Layer[map[string]any] {
	scope := opts.NewScope(name, priority, opts.WithScopeLabel(name))
	return opts.NewLayer(scope, payload, opts.WithSnapshotID[map[string]any](name))
}

// flattenConfig renders cfg as dotted keys such as "streak.timezone".
func flattenConfig(cfg Config) (map[string]any, error) {
	raw, err := toml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return flatten("", doc), nil
}

func flatten(prefix string, doc map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range doc {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flatten(full, nested) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}

func unflatten(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := out
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return out
}

func decode(doc map[string]any) (Config, error) {
	raw, err := toml.Marshal(doc)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// envOverrides reads one variable per known key, coercing each value to the
// type of its default.
func envOverrides(defaults map[string]any, lookup LookupEnv) (map[string]any, error) {
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[string]any)
	for _, key := range keys {
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		raw, ok := lookup(name)
		if !ok {
			continue
		}
		switch defaults[key].(type) {
		case bool:
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("config: %s: %w", name, err)
			}
			out[key] = v
		case int64:
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("config: %s: %w", name, err)
			}
			out[key] = v
		default:
			out[key] = raw
		}
	}
	return out, nil
}
