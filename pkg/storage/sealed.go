// Package storage seals share sets under a passphrase for writing to disk.
package storage

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/yapishu/up8-ticket/pkg/secure"
)

const (
	SaltSize = 32
	KeySize  = chacha20poly1305.KeySize

	// FormatVersion is written into every envelope.
	FormatVersion = 1

	kdfName = "argon2id"

	// Upper bounds on argon2 costs. Envelopes carry their own parameters,
	// so Open must not trust them unchecked.
	MaxKDFTime      = 64
	MaxKDFMemoryKiB = 4 * 1024 * 1024
	MaxKDFThreads   = 64
)

var (
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted file")
	ErrNotSealed       = errors.New("data is not a sealed envelope")
)

var additionalData = []byte("up8-ticket sealed v1")

// KDFParams are the argon2id costs used to turn a passphrase into a key.
type KDFParams struct {
	Time      uint32 `json:"time"`
	MemoryKiB uint32 `json:"memory_kib"`
	Threads   uint8  `json:"threads"`
}

func DefaultKDFParams() KDFParams {
	return KDFParams{Time: 3, MemoryKiB: 64 * 1024, Threads: 4}
}

func (p KDFParams) Validate() error {
	if p.Time == 0 || p.Threads == 0 {
		return fmt.Errorf("argon2 time and threads must be at least 1")
	}
	if p.MemoryKiB < 8*uint32(p.Threads) {
		return fmt.Errorf("argon2 memory must be at least %d KiB for %d threads", 8*uint32(p.Threads), p.Threads)
	}
	if p.Time > MaxKDFTime || p.MemoryKiB > MaxKDFMemoryKiB || p.Threads > MaxKDFThreads {
		return fmt.Errorf("argon2 costs exceed limits: time <= %d, memory <= %d KiB, threads <= %d",
			MaxKDFTime, MaxKDFMemoryKiB, MaxKDFThreads)
	}
	return nil
}

// Envelope is the on-disk form of sealed data. The KDF parameters travel
// with the ciphertext so files stay readable after the defaults change.
type Envelope struct {
	Version    int       `json:"version"`
	KDF        string    `json:"kdf"`
	Params     KDFParams `json:"params"`
	Salt       []byte    `json:"salt"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
}

func deriveKey(passphrase, salt []byte, p KDFParams) []byte {
	return argon2.IDKey(passphrase, salt, p.Time, p.MemoryKiB, p.Threads, KeySize)
}

// Seal encrypts plaintext with ChaCha20-Poly1305 under a key stretched from
// passphrase, returning the JSON envelope.
func Seal(plaintext, passphrase []byte, params KDFParams) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveKey(passphrase, salt, params)
	defer secure.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	env := Envelope{
		Version:    FormatVersion,
		KDF:        kdfName,
		Params:     params,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, additionalData),
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}

func parseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrNotSealed
	}
	if env.KDF != kdfName || len(env.Ciphertext) == 0 {
		return nil, ErrNotSealed
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	return &env, nil
}

// IsSealed reports whether data looks like an envelope written by Seal.
func IsSealed(data []byte) bool {
	_, err := parseEnvelope(data)
	return err == nil
}

// Open reverses Seal.
func Open(data, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}

	env, err := parseEnvelope(data)
	if err != nil {
		return nil, err
	}
	if err := env.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}
	if len(env.Salt) != SaltSize || len(env.Nonce) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("invalid envelope: bad salt or nonce length")
	}

	key := deriveKey(passphrase, env.Salt, env.Params)
	defer secure.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, additionalData)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}

// SecureFile is a sealed file on disk.
type SecureFile struct {
	path   string
	Params KDFParams
}

func NewSecureFile(path string) *SecureFile {
	return &SecureFile{path: path, Params: DefaultKDFParams()}
}

func (s *SecureFile) Path() string {
	return s.path
}

func (s *SecureFile) Save(data, passphrase []byte) error {
	sealed, err := Seal(data, passphrase, s.Params)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(s.path, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s *SecureFile) Load(passphrase []byte) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Open(data, passphrase)
}

func (s *SecureFile) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Delete overwrites the file with random bytes before removing it.
func (s *SecureFile) Delete() error {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	noise := make([]byte, info.Size())
	if _, err := rand.Read(noise); err != nil {
		return fmt.Errorf("failed to overwrite file: %w", err)
	}
	if err := os.WriteFile(s.path, noise, 0600); err != nil {
		return fmt.Errorf("failed to overwrite file: %w", err)
	}

	return os.Remove(s.path)
}
