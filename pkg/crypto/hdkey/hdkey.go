// Package hdkey derives BIP32 key trees from tickets.
package hdkey

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/argon2"

	"github.com/yapishu/up8-ticket/pkg/secure"
)

const (
	HardenedKeyOffset = uint32(0x80000000)

	// SeedSize is the length of the stretched BIP32 seed.
	SeedSize = 64

	// DefaultSalt domain-separates ticket seeds when no salt is given.
	DefaultSalt = "up8-ticket hd seed"
)

// StretchParams are the argon2id cost parameters used to turn a ticket into a
// BIP32 seed.
type StretchParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

func DefaultStretchParams() StretchParams {
	return StretchParams{Time: 3, Memory: 64 * 1024, Threads: 4}
}

func (p StretchParams) validate() error {
	if p.Time == 0 {
		return fmt.Errorf("argon2 time cost must be at least 1")
	}
	if p.Threads == 0 {
		return fmt.Errorf("argon2 threads must be at least 1")
	}
	if p.Memory < 8*uint32(p.Threads) {
		return fmt.Errorf("argon2 memory must be at least %d KiB for %d threads", 8*uint32(p.Threads), p.Threads)
	}
	return nil
}

type HDKey struct {
	key  *bip32.Key
	path string
}

// Seed stretches a ticket into a BIP32 seed.
func Seed(ticket, salt []byte, params StretchParams) ([]byte, error) {
	if len(ticket) < 16 {
		return nil, fmt.Errorf("ticket must be at least 16 bytes")
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	if len(salt) == 0 {
		salt = []byte(DefaultSalt)
	}

	return argon2.IDKey(ticket, salt, params.Time, params.Memory, params.Threads, SeedSize), nil
}

// FromTicket returns the master key of the tree rooted at a ticket.
func FromTicket(ticket, salt []byte, params StretchParams) (*HDKey, error) {
	seed, err := Seed(ticket, salt, params)
	if err != nil {
		return nil, err
	}
	defer secure.Zero(seed)

	return NewMasterKey(seed)
}

func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) < 16 {
		return nil, fmt.Errorf("seed must be at least 16 bytes")
	}

	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	return &HDKey{
		key:  masterKey,
		path: "m",
	}, nil
}

func FromExtendedKey(xkey string) (*HDKey, error) {
	key, err := bip32.B58Deserialize(xkey)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize extended key: %w", err)
	}

	return &HDKey{
		key:  key,
		path: "",
	}, nil
}

// ParsePath turns "m/44'/0'/0'/0/0" into child indices. Hardened segments may
// be marked with ' or h.
func ParsePath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	if path == "m" || path == "M" {
		return nil, nil
	}
	if !strings.HasPrefix(path, "m/") && !strings.HasPrefix(path, "M/") {
		return nil, fmt.Errorf("path must start with 'm/' or 'M/'")
	}

	segments := strings.Split(path, "/")[1:]
	indices := make([]uint32, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("empty path segment in %q", path)
		}

		hardened := strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "h")
		if hardened {
			segment = strings.TrimSuffix(strings.TrimSuffix(segment, "'"), "h")
		}

		index, err := strconv.ParseUint(segment, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment '%s': %w", segment, err)
		}

		childIndex := uint32(index)
		if hardened {
			childIndex += HardenedKeyOffset
		}
		indices = append(indices, childIndex)
	}

	return indices, nil
}

func (h *HDKey) DerivePath(path string) (*HDKey, error) {
	indices, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	currentKey := h.key
	for _, childIndex := range indices {
		newKey, err := currentKey.NewChildKey(childIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child key at index %d: %w", childIndex, err)
		}
		currentKey = newKey
	}

	return &HDKey{
		key:  currentKey,
		path: strings.TrimSpace(path),
	}, nil
}

func (h *HDKey) PublicKeyHex() string {
	return hex.EncodeToString(h.key.PublicKey().Key)
}

func (h *HDKey) ExtendedPublicKey() string {
	return h.key.PublicKey().String()
}

func (h *HDKey) ExtendedPrivateKey() string {
	return h.key.String()
}

func (h *HDKey) Fingerprint() string {
	return hex.EncodeToString(h.key.FingerPrint)
}

func (h *HDKey) Path() string {
	return h.path
}

func (h *HDKey) IsPrivate() bool {
	return h.key.IsPrivate
}

func ValidatePath(path string) error {
	_, err := ParsePath(path)
	return err
}
