package querykit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an Error.
type Kind uint8

// Error kinds.
const (
	// KindConfiguration reports programmer misuse of a builder, such as
	// rendering a query without a FROM clause. It is never a client error.
	KindConfiguration Kind = iota + 1
	// KindInvalidOperator reports an operator alias unknown to the factory.
	KindInvalidOperator
	// KindForbiddenOperator reports a known operator rejected by a field.
	KindForbiddenOperator
	// KindInvalidValue reports a structurally invalid condition value.
	KindInvalidValue
	// KindMissingRequired reports a required field without value or default.
	KindMissingRequired
	// KindInvalidChoice reports a value outside a field's allowed choices.
	KindInvalidChoice
	// KindValidation reports a failed type coercion.
	KindValidation
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInvalidOperator:
		return "invalid_operator"
	case KindForbiddenOperator:
		return "forbidden_operator"
	case KindInvalidValue:
		return "invalid_value"
	case KindMissingRequired:
		return "missing_required_field"
	case KindInvalidChoice:
		return "invalid_choice"
	case KindValidation:
		return "validation"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Sentinel errors, one per kind. Every *Error matches the sentinel of its
// kind with errors.Is. A forbidden operator error also matches
// ErrInvalidOperator.
var (
	ErrConfiguration     = errors.New("querykit: configuration error")
	ErrInvalidOperator   = errors.New("querykit: invalid operator")
	ErrForbiddenOperator = errors.New("querykit: operator not accepted by field")
	ErrInvalidValue      = errors.New("querykit: invalid condition value")
	ErrMissingRequired   = errors.New("querykit: missing required field")
	ErrInvalidChoice     = errors.New("querykit: invalid condition choice")
	ErrValidation        = errors.New("querykit: validation failed")
)

var sentinels = map[Kind]error{
	KindConfiguration:     ErrConfiguration,
	KindInvalidOperator:   ErrInvalidOperator,
	KindForbiddenOperator: ErrForbiddenOperator,
	KindInvalidValue:      ErrInvalidValue,
	KindMissingRequired:   ErrMissingRequired,
	KindInvalidChoice:     ErrInvalidChoice,
	KindValidation:        ErrValidation,
}

// Context is the structured payload attached to an Error.
type Context struct {
	Field    string   // Field the condition applies to
	Operator string   // Offending operator alias
	Allowed  []string // Operators accepted by the field
	Choices  []any    // Values accepted by the field
}

// Error is the error type returned by the builder, the conditions and the
// filter engine.
type Error struct {
	Kind    Kind
	Context Context
	Msg     string // Optional detail
	Err     error  // Underlying error, if any
}

// Error returns the error string.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(sentinels[e.Kind].Error())
	if e.Context.Field != "" {
		fmt.Fprintf(&sb, " (field=%q", e.Context.Field)
		if e.Context.Operator != "" {
			fmt.Fprintf(&sb, ", operator=%q", e.Context.Operator)
		}
		if len(e.Context.Allowed) > 0 {
			fmt.Fprintf(&sb, ", allowed=%s", strings.Join(e.Context.Allowed, ","))
		}
		if len(e.Context.Choices) > 0 {
			fmt.Fprintf(&sb, ", choices=%v", e.Context.Choices)
		}
		sb.WriteByte(')')
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the target is the sentinel of the error kind.
func (e *Error) Is(target error) bool {
	if target == sentinels[e.Kind] {
		return true
	}
	return e.Kind == KindForbiddenOperator && target == ErrInvalidOperator
}

// StatusCode returns the HTTP status code matching the error kind.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindConfiguration:
		return http.StatusInternalServerError
	case KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// NewConfigurationError returns a configuration error with the given message.
func NewConfigurationError(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Msg: fmt.Sprintf(format, args...)}
}

// NewInvalidOperatorError returns an error for an unknown operator alias.
func NewInvalidOperatorError(field, operator string) *Error {
	return &Error{Kind: KindInvalidOperator, Context: Context{Field: field, Operator: operator}}
}

// NewForbiddenOperatorError returns an error for an operator the field does not accept.
func NewForbiddenOperatorError(field, operator string, allowed []string) *Error {
	return &Error{
		Kind:    KindForbiddenOperator,
		Context: Context{Field: field, Operator: operator, Allowed: allowed},
	}
}

// NewInvalidValueError returns an error for a structurally invalid value.
func NewInvalidValueError(field, operator, msg string) *Error {
	return &Error{Kind: KindInvalidValue, Context: Context{Field: field, Operator: operator}, Msg: msg}
}

// NewMissingRequiredError returns an error for a required field without value.
func NewMissingRequiredError(field, operator string) *Error {
	return &Error{Kind: KindMissingRequired, Context: Context{Field: field, Operator: operator}}
}

// NewInvalidChoiceError returns an error for a value outside the allowed choices.
func NewInvalidChoiceError(field, operator string, choices []any) *Error {
	return &Error{
		Kind:    KindInvalidChoice,
		Context: Context{Field: field, Operator: operator, Choices: choices},
	}
}

// NewValidationError wraps a coercion failure.
func NewValidationError(field, operator string, err error) *Error {
	return &Error{Kind: KindValidation, Context: Context{Field: field, Operator: operator}, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsConfigurationError returns true if the error reports builder misuse.
func IsConfigurationError(err error) bool {
	return KindOf(err) == KindConfiguration
}

// IsClientError returns true if the error was caused by request input and
// should be reported to the caller as a 4xx response.
func IsClientError(err error) bool {
	k := KindOf(err)
	return k != 0 && k != KindConfiguration
}

// StatusCode returns the HTTP status code for err, or 500 for errors that
// are not *Error values.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode()
	}
	return http.StatusInternalServerError
}
