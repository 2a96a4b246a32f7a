package codec

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hex is lowercase hexadecimal. Decode accepts either case and an optional
// 0x prefix.
type Hex struct{}

func (Hex) Name() string { return "hex" }

func (Hex) Encode(b []byte) string {
	return hex.EncodeToString(b)
}

func (Hex) Decode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return b, nil
}
