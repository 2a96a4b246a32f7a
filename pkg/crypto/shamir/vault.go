package shamir

import "fmt"

// VaultPart lays the share out the way github.com/hashicorp/vault/shamir does:
// the y values followed by a one byte x coordinate. Both use the AES field, so
// parts convert losslessly in either direction.
func (s Share) VaultPart() []byte {
	part := make([]byte, len(s.Data)+1)
	copy(part, s.Data)
	part[len(s.Data)] = s.Index
	return part
}

func FromVaultPart(part []byte) (Share, error) {
	if len(part) < 2 {
		return Share{}, fmt.Errorf("%w: vault part must be at least 2 bytes", ErrMalformedShare)
	}
	index := part[len(part)-1]
	if index == 0 {
		return Share{}, fmt.Errorf("%w: share index cannot be 0", ErrMalformedShare)
	}

	data := make([]byte, len(part)-1)
	copy(data, part[:len(part)-1])
	return Share{Index: index, Data: data}, nil
}
