// Package secure holds helpers for handling ticket and share material that
// must not outlive its use or leak into logs.
package secure

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"runtime"
)

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// Wipe zeroes every buffer.
func Wipe(bufs ...[]byte) {
	for _, b := range bufs {
		Zero(b)
	}
}

func ConstantTimeCompare(x, y []byte) bool {
	if len(x) != len(y) {
		return false
	}
	return subtle.ConstantTimeCompare(x, y) == 1
}

// Redacted wraps secret bytes for logging: only the length is ever rendered.
type Redacted []byte

func (r Redacted) LogValue() slog.Value {
	return slog.StringValue(r.String())
}

func (r Redacted) String() string {
	return fmt.Sprintf("[redacted %d bytes]", len(r))
}

// Format keeps %x, %s and friends from printing the contents.
func (r Redacted) Format(f fmt.State, verb rune) {
	_, _ = f.Write([]byte(r.String()))
}
