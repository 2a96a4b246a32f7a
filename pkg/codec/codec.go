// Package codec renders byte strings as text and back.
package codec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvalidEncoding = errors.New("invalid encoding")

// Codec is a bijection between byte strings and their textual form.
// Decode(Encode(b)) must equal b for every b, including the empty string.
type Codec interface {
	Name() string
	Encode(b []byte) string
	Decode(s string) ([]byte, error)
}

var registry = map[string]Codec{
	"q":   Q{},
	"hex": Hex{},
}

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	c, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return c, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
