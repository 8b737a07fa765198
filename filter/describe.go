package filter

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/invopop/jsonschema"
)

var rules = inflect.NewDefaultRuleset()

// Describe returns a JSON Schema of the parameters accepted by def, one
// object property per field whose properties are its operators.
func Describe(reg *Registry, def *Definition) *jsonschema.Schema {
	schema := reg.lookup(def)
	root := &jsonschema.Schema{
		Version:              jsonschema.Version,
		Type:                 "object",
		Title:                rules.Humanize(def.Name),
		Description:          "Filters in the form field[operator]=value. A plain field=value uses the " + def.defaultOperator() + " operator.",
		Properties:           jsonschema.NewProperties(),
		AdditionalProperties: jsonschema.FalseSchema,
	}
	for _, name := range fieldNames(schema) {
		f := schema[name]
		prop := &jsonschema.Schema{
			Type:                 "object",
			Title:                rules.Humanize(name),
			Description:          fieldDescription(f),
			Properties:           jsonschema.NewProperties(),
			AdditionalProperties: jsonschema.FalseSchema,
		}
		for _, op := range f.Operators {
			prop.Properties.Set(op, operatorSchema(op, f))
		}
		if f.Required {
			root.Required = append(root.Required, name)
		}
		root.Properties.Set(name, prop)
	}
	return root
}

func fieldDescription(f Field) string {
	var b strings.Builder
	if f.Description != "" {
		b.WriteString(strings.TrimSuffix(f.Description, "."))
		b.WriteString(". ")
	}
	fmt.Fprintf(&b, "Supported operators: %s.", strings.Join(f.Operators, ", "))
	return b.String()
}

func operatorSchema(op string, f Field) *jsonschema.Schema {
	switch op {
	case OpIsNull, OpNotNull:
		return &jsonschema.Schema{Description: "The value is ignored."}
	case OpLike, OpNotLike:
		return &jsonschema.Schema{
			Type:        "string",
			Pattern:     `\*`,
			Description: "Pattern where * matches any sequence of characters.",
		}
	case OpIn:
		item := valueSchema(f)
		return &jsonschema.Schema{
			AnyOf: []*jsonschema.Schema{
				{Type: "string", Description: "Comma separated list."},
				{Type: "array", Items: item},
			},
		}
	}
	return valueSchema(f)
}

func valueSchema(f Field) *jsonschema.Schema {
	s := &jsonschema.Schema{Default: f.Default}
	if len(f.Choices) > 0 {
		s.Enum = append([]any(nil), f.Choices...)
	}
	switch f.Type {
	case Int:
		s.Type = "integer"
	case Float:
		s.Type = "number"
	case Bool:
		s.Type = "boolean"
	case Raw:
	case UUID:
		s.Type, s.Format = "string", "uuid"
	case Time:
		s.Type, s.Format = "string", "date-time"
	case Alpha:
		s.Type, s.Pattern = "string", alphaRe.String()
	case AlphaNum:
		s.Type, s.Pattern = "string", alphaNumRe.String()
	case AlphaNumExt:
		s.Type, s.Pattern = "string", alphaNumExtRe.String()
	default:
		s.Type = "string"
	}
	return s
}
