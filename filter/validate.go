package filter

import (
	"reflect"
	"slices"

	"github.com/spf13/cast"

	"github.com/syssam/querykit"
)

// validateValue checks v against f and returns the coerced value.
//
// A nil value of a required field takes the field default, or is an error
// when there is none. Optional nil values stay nil. Values outside a
// non-empty choice list are rejected before the value is coerced to the
// field kind.
func validateValue(field, op string, v any, f Field) (any, error) {
	if v == nil && f.Required {
		if f.Default == nil {
			return nil, querykit.NewMissingRequiredError(field, op)
		}
		v = f.Default
	}
	if f.Type == Bool {
		if b, ok := v.(bool); ok && !b {
			v = 0
		}
	}
	if v == nil {
		return nil, nil
	}
	if len(f.Choices) > 0 && !isChoice(f.Choices, v) {
		return nil, querykit.NewInvalidChoiceError(field, op, f.Choices)
	}
	out, err := f.Type.Coerce(v)
	if err != nil {
		return nil, querykit.NewValidationError(field, op, err)
	}
	return out, nil
}

// isChoice compares by string form: request values are strings while
// choices are often declared as numbers.
func isChoice(choices []any, v any) bool {
	s, err := cast.ToStringE(v)
	if err != nil {
		return slices.ContainsFunc(choices, func(c any) bool { return reflect.DeepEqual(c, v) })
	}
	return slices.ContainsFunc(choices, func(c any) bool {
		cs, err := cast.ToStringE(c)
		return err == nil && cs == s
	})
}
