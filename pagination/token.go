package pagination

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeCursor returns an opaque URL-safe token for a cursor value. A nil
// value encodes to the empty string.
func EncodeCursor(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("pagination: encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCursor returns the cursor value of a token created by EncodeCursor.
// Integers decode as int64 or uint64 and floats as float64. The empty token
// decodes to nil.
func DecodeCursor(token string) (any, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("pagination: decode cursor: %w", err)
	}
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return nil, fmt.Errorf("pagination: decode cursor: %w", err)
	}
	return v, nil
}
