// Package language holds the static registry of supported languages.
package language

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var builtin []byte

// ErrNotFound is returned by Describe for an unknown key.
var ErrNotFound = errors.New("language not found")

// Route decides where a language's code runs.
type Route string

const (
	Local  Route = "local"  // evaluated in-process
	Remote Route = "remote" // delegated to the remote compile-and-run service
)

// Dialect is the source variant a local language is written in.
type Dialect string

const (
	JavaScript Dialect = "javascript"
	TypeScript Dialect = "typescript"
)

// Descriptor describes one supported language.
type Descriptor struct {
	Key         string  `yaml:"key" json:"key"`
	DisplayName string  `yaml:"name" json:"name"`
	SyntaxID    string  `yaml:"syntax" json:"syntax"`
	Route       Route   `yaml:"route" json:"route"`
	Dialect     Dialect `yaml:"dialect,omitempty" json:"dialect,omitempty"`
	Scaffold    string  `yaml:"scaffold" json:"scaffold"`
}

// NeedsTransform reports whether the source must be transformed before the
// local runner can evaluate it.
func (d Descriptor) NeedsTransform() bool {
	return d.Route == Local && d.Dialect != JavaScript
}

// Registry is an immutable set of descriptors keyed by Descriptor.Key.
type Registry struct {
	order []string
	byKey map[string]Descriptor
}

type registryFile struct {
	Languages []Descriptor `yaml:"languages"`
}

// Builtin returns the registry compiled into the binary.
func Builtin() *Registry {
	r, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("parsing builtin languages: %v", err))
	}
	return r
}

// LoadFile reads a registry from a YAML file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading languages %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing languages %s: %w", path, err)
	}
	return r, nil
}

// Parse builds a registry from YAML, rejecting duplicate keys and unknown
// routes.
func Parse(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return New(f.Languages...)
}

// New builds a registry from descriptors, in the given order.
func New(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byKey: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if d.Key == "" {
			return nil, errors.New("language with empty key")
		}
		if _, dup := r.byKey[d.Key]; dup {
			return nil, fmt.Errorf("duplicate language key %q", d.Key)
		}
		switch d.Route {
		case Local:
			if d.Dialect == "" {
				d.Dialect = JavaScript
			}
			if d.Dialect != JavaScript && d.Dialect != TypeScript {
				return nil, fmt.Errorf("language %q: unsupported local dialect %q", d.Key, d.Dialect)
			}
		case Remote:
		default:
			return nil, fmt.Errorf("language %q: unknown route %q", d.Key, d.Route)
		}
		if d.DisplayName == "" {
			d.DisplayName = d.Key
		}
		if d.SyntaxID == "" {
			d.SyntaxID = d.Key
		}
		r.byKey[d.Key] = d
		r.order = append(r.order, d.Key)
	}
	return r, nil
}

// Describe returns the descriptor for key. Lookup is exact-match.
func (r *Registry) Describe(key string) (Descriptor, error) {
	d, ok := r.byKey[key]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return d, nil
}

// All returns every descriptor in declaration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

// Keys returns every language key in declaration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}
