package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// Kind is the scalar type a filter field is coerced to.
type Kind uint8

// Field kinds.
const (
	// Raw keeps the value unchanged.
	Raw Kind = iota
	// Text is any valid UTF-8 string.
	Text
	// Int is a signed integer, coerced to int64. Strings are read as
	// base 10.
	Int
	// Float is a floating point number, coerced to float64.
	Float
	// Bool accepts 1/0, t/f, true/false, coerced to bool.
	Bool
	// Alpha is a string of ASCII letters.
	Alpha
	// AlphaNum is a string of ASCII letters and digits.
	AlphaNum
	// AlphaNumExt is a string of ASCII letters, digits, '_' and '-'.
	AlphaNumExt
	// UUID is a UUID in any of the forms accepted by uuid.Parse,
	// coerced to its canonical string.
	UUID
	// Time is a timestamp, coerced to time.Time.
	Time
)

var kindNames = [...]string{
	Raw:         "raw",
	Text:        "text",
	Int:         "int",
	Float:       "float",
	Bool:        "bool",
	Alpha:       "alpha",
	AlphaNum:    "alphanum",
	AlphaNumExt: "alphanumext",
	UUID:        "uuid",
	Time:        "time",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind returns the kind with the given name. An empty name is Raw.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "":
		return Raw, nil
	case "integer":
		return Int, nil
	case "number":
		return Float, nil
	case "boolean":
		return Bool, nil
	case "string":
		return Text, nil
	}
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("filter: unknown field type %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

var (
	alphaRe       = regexp.MustCompile(`^[A-Za-z]+$`)
	alphaNumRe    = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	alphaNumExtRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Coerce converts v to the kind. Nil is returned unchanged.
func (k Kind) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch k {
	case Raw:
		return v, nil
	case Text:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, err
		}
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("invalid UTF-8 text %q", s)
		}
		return s, nil
	case Int:
		if s, ok := v.(string); ok {
			return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		}
		return cast.ToInt64E(v)
	case Float:
		return cast.ToFloat64E(v)
	case Bool:
		return cast.ToBoolE(v)
	case Alpha:
		return matchString(v, alphaRe, "letters")
	case AlphaNum:
		return matchString(v, alphaNumRe, "letters and digits")
	case AlphaNumExt:
		return matchString(v, alphaNumExtRe, "letters, digits, '_' and '-'")
	case UUID:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, err
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	case Time:
		return cast.ToTimeE(v)
	default:
		return nil, fmt.Errorf("unsupported field type %s", k)
	}
}

func matchString(v any, re *regexp.Regexp, what string) (string, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", err
	}
	if !re.MatchString(s) {
		return "", fmt.Errorf("%q must contain only %s", s, what)
	}
	return s, nil
}
