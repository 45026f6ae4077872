// Package secret holds credential values whose every rendering path is
// redacted. The only way to read the plain value is Reveal.
package secret

import (
	"fmt"
	"log/slog"
)

// Redacted is what every formatting path prints instead of the value.
const Redacted = "***"

// Value is a write-only string credential.
type Value struct {
	v string
}

// New wraps s.
func New(s string) Value {
	return Value{v: s}
}

// Reveal returns the plain value. Call it only at the point the value is
// handed to the external system that needs it.
func (s Value) Reveal() string { return s.v }

// IsZero reports whether no value was provided.
func (s Value) IsZero() bool { return s.v == "" }

func (s Value) String() string {
	if s.v == "" {
		return ""
	}
	return Redacted
}

func (s Value) GoString() string { return "secret.Value{" + Redacted + "}" }

// Format covers %v, %+v, %#v, %s, %q and friends.
func (s Value) Format(f fmt.State, verb rune) {
	switch verb {
	case 'q':
		_, _ = fmt.Fprintf(f, "%q", s.String())
	case 'v':
		if f.Flag('#') {
			_, _ = f.Write([]byte(s.GoString()))
			return
		}
		_, _ = f.Write([]byte(s.String()))
	default:
		_, _ = f.Write([]byte(s.String()))
	}
}

// MarshalJSON never emits the value.
func (s Value) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// MarshalText never emits the value.
func (s Value) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LogValue keeps slog handlers from reaching the value.
func (s Value) LogValue() slog.Value {
	return slog.StringValue(s.String())
}
