// Package mnemonic renders tickets as BIP39 word lists for paper backups.
package mnemonic

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

const (
	MinTicketBytes = 16
	MaxTicketBytes = 32
)

var ErrUnsupportedLength = errors.New("ticket length has no BIP39 rendering")

type Mnemonic struct {
	words []string
}

// FromTicket renders a 16, 20, 24, 28 or 32 byte ticket as 12 to 24 words.
func FromTicket(ticket []byte) (*Mnemonic, error) {
	if err := Supported(len(ticket)); err != nil {
		return nil, err
	}

	phrase, err := bip39.NewMnemonic(ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic from ticket: %w", err)
	}

	return &Mnemonic{words: strings.Fields(phrase)}, nil
}

// Supported reports whether a ticket of n bytes can be rendered.
func Supported(n int) error {
	if n < MinTicketBytes || n > MaxTicketBytes || n%4 != 0 {
		return fmt.Errorf("%w: %d bytes, need 16..32 in steps of 4", ErrUnsupportedLength, n)
	}
	return nil
}

func FromWords(words string) (*Mnemonic, error) {
	fields := strings.Fields(strings.ToLower(words))
	if _, err := TicketBitsFromWordCount(len(fields)); err != nil {
		return nil, err
	}

	phrase := strings.Join(fields, " ")
	if !bip39.IsMnemonicValid(phrase) {
		return nil, fmt.Errorf("invalid mnemonic phrase")
	}

	return &Mnemonic{words: strings.Fields(phrase)}, nil
}

func (m *Mnemonic) Words() string {
	return strings.Join(m.words, " ")
}

func (m *Mnemonic) WordList() []string {
	result := make([]string, len(m.words))
	copy(result, m.words)
	return result
}

func (m *Mnemonic) WordCount() int {
	return len(m.words)
}

// Ticket recovers the ticket bytes the words encode.
func (m *Mnemonic) Ticket() ([]byte, error) {
	ticket, err := bip39.EntropyFromMnemonic(m.Words())
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket from mnemonic: %w", err)
	}
	return ticket, nil
}

// Seed is the BIP39 seed of the words under passphrase.
func (m *Mnemonic) Seed(passphrase string) []byte {
	return bip39.NewSeed(m.Words(), passphrase)
}

// Fingerprint is a short non-secret tag for telling ticket backups apart.
func (m *Mnemonic) Fingerprint() (string, error) {
	ticket, err := m.Ticket()
	if err != nil {
		return "", err
	}

	h := sha256.Sum256(ticket)
	return hex.EncodeToString(h[:4]), nil
}

func TicketBitsFromWordCount(wordCount int) (int, error) {
	switch wordCount {
	case 12:
		return 128, nil
	case 15:
		return 160, nil
	case 18:
		return 192, nil
	case 21:
		return 224, nil
	case 24:
		return 256, nil
	default:
		return 0, fmt.Errorf("invalid word count: %d", wordCount)
	}
}
