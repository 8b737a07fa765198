package filter

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Field declares how a filter field is validated.
type Field struct {
	Type        Kind     `yaml:"type" json:"type"`
	Required    bool     `yaml:"required" json:"required,omitempty"`
	Default     any      `yaml:"default" json:"default,omitempty"`
	Choices     []any    `yaml:"choices" json:"choices,omitempty"`
	Operators   []string `yaml:"operators" json:"operators,omitempty"`
	Description string   `yaml:"description" json:"description,omitempty"`
}

func (f Field) clone() Field {
	f.Choices = slices.Clone(f.Choices)
	f.Operators = slices.Clone(f.Operators)
	return f
}

// Definition describes the fields a filter accepts.
type Definition struct {
	// Name identifies the definition in a Registry. Definitions without a
	// name are cached per instance.
	Name string
	// DefaultOperator is the operator of plain "field=value" parameters and
	// of fields that declare no operators. Defaults to "eq".
	DefaultOperator string
	// Fields returns the field definitions. It is called at most once per
	// Registry.
	Fields func() map[string]Field
	// BeforeValidation, if set, may rewrite the parameters before they are
	// turned into conditions.
	BeforeValidation func(Params)
}

func (d *Definition) defaultOperator() string {
	if d == nil || d.DefaultOperator == "" {
		return OpEq
	}
	return d.DefaultOperator
}

// resolve calls Fields and fills in the default operators.
func (d *Definition) resolve() map[string]Field {
	if d.Fields == nil {
		return map[string]Field{}
	}
	fields := d.Fields()
	schema := make(map[string]Field, len(fields))
	for name, f := range fields {
		f = f.clone()
		if len(f.Operators) == 0 {
			f.Operators = []string{d.defaultOperator()}
		}
		schema[name] = f
	}
	return schema
}

// Registry caches resolved definitions by name. It is safe for concurrent
// use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]map[string]Field
	group   singleflight.Group
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]map[string]Field)}
}

// Resolve returns a copy of the resolved fields of def.
func (r *Registry) Resolve(def *Definition) map[string]Field {
	schema := r.lookup(def)
	out := make(map[string]Field, len(schema))
	for name, f := range schema {
		out[name] = f.clone()
	}
	return out
}

// Len returns the number of cached definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

// Reset drops all cached definitions.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.schemas)
}

func (r *Registry) cached(name string) (map[string]Field, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

// cacheKey returns the registry key of def.
func (d *Definition) cacheKey() string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("\x00%p", d)
}

// lookup returns the shared cached schema. Callers must not modify it.
func (r *Registry) lookup(def *Definition) map[string]Field {
	if r == nil {
		return def.resolve()
	}
	key := def.cacheKey()
	if s, ok := r.cached(key); ok {
		return s
	}
	v, _, _ := r.group.Do(key, func() (any, error) {
		if s, ok := r.cached(key); ok {
			return s, nil
		}
		s := def.resolve()
		r.mu.Lock()
		r.schemas[key] = s
		r.mu.Unlock()
		return s, nil
	})
	return v.(map[string]Field)
}

// fieldNames returns the schema keys in sorted order.
func fieldNames(schema map[string]Field) []string {
	return slices.Sorted(maps.Keys(schema))
}
