package shamir

import "fmt"

// fieldBits is written in the low nibble of the first wire byte. The high
// nibble is the zero pad that keeps the marker byte-aligned.
const fieldBits = 8

// Bytes frames a share for a codec: marker, index, data.
func (s Share) Bytes() []byte {
	out := make([]byte, 0, len(s.Data)+2)
	out = append(out, fieldBits, s.Index)
	return append(out, s.Data...)
}

// ParseShare undoes Bytes. The data slice is copied.
func ParseShare(b []byte) (Share, error) {
	if len(b) < 3 {
		return Share{}, fmt.Errorf("%w: %d bytes is too short", ErrMalformedShare, len(b))
	}
	if pad := b[0] >> 4; pad != 0 {
		return Share{}, fmt.Errorf("%w: unexpected leading nibble %x", ErrMalformedShare, pad)
	}
	if bits := b[0] & 0x0f; bits != fieldBits {
		return Share{}, fmt.Errorf("%w: unsupported field size %d", ErrMalformedShare, bits)
	}
	if b[1] == 0 {
		return Share{}, fmt.Errorf("%w: share index cannot be 0", ErrMalformedShare)
	}

	data := make([]byte, len(b)-2)
	copy(data, b[2:])
	return Share{Index: b[1], Data: data}, nil
}
