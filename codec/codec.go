// Package codec converts audio byte buffers to and from the text-safe
// encoding used at the storage boundary. Encode and Decode are mutual
// inverses: Decode(Encode(b)) == b for every b.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrCorruptEncoding is returned when decoding input that is not valid
// standard base64.
var ErrCorruptEncoding = errors.New("codec: corrupt encoding")

// Encode returns the printable-ASCII form of b.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Decode reverses Encode. Input containing characters outside the
// base64 alphabet, or with invalid padding, yields ErrCorruptEncoding.
func Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEncoding, err)
	}
	return b, nil
}

// AudioData is a byte slice that serializes to/from the text-safe
// encoding in JSON, so audio can ride inside the note wire format.
type AudioData []byte

// MarshalJSON implements json.Marshaler.
func (d AudioData) MarshalJSON() ([]byte, error) {
	return []byte(`"` + Encode(d) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *AudioData) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty input", ErrCorruptEncoding)
	}
	switch data[0] {
	case 'n': // null
		return nil
	case '"':
		if len(data) < 2 || data[len(data)-1] != '"' {
			return fmt.Errorf("%w: unterminated string", ErrCorruptEncoding)
		}
		decoded, err := Decode(string(data[1 : len(data)-1]))
		if err != nil {
			return err
		}
		*d = decoded
		return nil
	default:
		return fmt.Errorf("%w: expected string", ErrCorruptEncoding)
	}
}
