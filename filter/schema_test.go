package filter

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingDefinition(name string, calls *atomic.Int32) *Definition {
	return &Definition{
		Name: name,
		Fields: func() map[string]Field {
			calls.Add(1)
			return map[string]Field{
				"age":    {Type: Int, Operators: []string{OpGt, OpEq}},
				"status": {Type: Text},
			}
		},
	}
}

func TestRegistryMemoizes(t *testing.T) {
	var calls atomic.Int32
	reg := NewRegistry()
	def := countingDefinition("users", &calls)

	for range 2 {
		_, err := New(Params{"age": map[string]any{"gt": "30"}}, WithDefinition(reg, def))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, reg.Len())

	// Another registry resolves again.
	_ = NewRegistry().Resolve(def)
	assert.Equal(t, int32(2), calls.Load())

	reg.Reset()
	assert.Zero(t, reg.Len())
	_ = reg.Resolve(def)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRegistryConcurrentFirstAccess(t *testing.T) {
	var calls atomic.Int32
	reg := NewRegistry()
	def := countingDefinition("users", &calls)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fields := reg.Resolve(def)
			assert.Len(t, fields, 2)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestRegistryResolveCopies(t *testing.T) {
	var calls atomic.Int32
	reg := NewRegistry()
	def := countingDefinition("users", &calls)

	fields := reg.Resolve(def)
	fields["age"].Operators[0] = "lt"
	delete(fields, "status")

	fields = reg.Resolve(def)
	assert.Equal(t, []string{OpGt, OpEq}, fields["age"].Operators)
	assert.Contains(t, fields, "status")
}

func TestResolveDefaultOperators(t *testing.T) {
	def := &Definition{
		Name: "posts",
		Fields: func() map[string]Field {
			return map[string]Field{"title": {Type: Text}}
		},
	}
	assert.Equal(t, []string{OpEq}, NewRegistry().Resolve(def)["title"].Operators)

	def.Name, def.DefaultOperator = "posts_like", OpLike
	assert.Equal(t, []string{OpLike}, NewRegistry().Resolve(def)["title"].Operators)

	// Without a registry the definition is resolved on every call.
	var calls atomic.Int32
	counting := countingDefinition("nocache", &calls)
	var reg *Registry
	reg.lookup(counting)
	reg.lookup(counting)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRegistryUnnamedDefinitions(t *testing.T) {
	reg := NewRegistry()
	ages := &Definition{Fields: func() map[string]Field {
		return map[string]Field{"age": {Type: Int}}
	}}
	statuses := &Definition{Fields: func() map[string]Field {
		return map[string]Field{"status": {Type: Text}}
	}}

	f, err := New(Params{"age": "30"}, WithDefinition(reg, ages))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"age__eq": int64(30)}, f.Parameters())

	f, err = New(Params{"status": "open"}, WithDefinition(reg, statuses))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status__eq": "open"}, f.Parameters())
	assert.Equal(t, 2, reg.Len())

	_, err = New(Params{"age": "40"}, WithDefinition(reg, ages))
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
}
