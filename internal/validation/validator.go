package validation

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/yapishu/up8-ticket/pkg/codec"
	"github.com/yapishu/up8-ticket/pkg/crypto/entropy"
	"github.com/yapishu/up8-ticket/pkg/crypto/hdkey"
	"github.com/yapishu/up8-ticket/pkg/crypto/shamir"
	"github.com/yapishu/up8-ticket/pkg/secure"
)

// MaxCount bounds how many tickets one generate call may print.
const MaxCount = 1000

var (
	hexPattern  = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	pathPattern = regexp.MustCompile(`^[mM](/\d+['h]?)*$`)
)

func ValidateHex(input string) error {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return fmt.Errorf("hex string cannot be empty")
	}

	if len(input)%2 != 0 {
		return fmt.Errorf("hex string must have even length")
	}

	if !hexPattern.MatchString(input) {
		return fmt.Errorf("invalid hex characters")
	}

	return nil
}

// ParseAdditionalInput decodes the hex given to --addl. Empty input is no
// additional input.
func ParseAdditionalInput(input string) ([]byte, error) {
	input = strings.TrimPrefix(strings.TrimSpace(input), "0x")
	if input == "" {
		return nil, nil
	}
	if err := ValidateHex(input); err != nil {
		return nil, fmt.Errorf("invalid additional input: %w", err)
	}
	return hex.DecodeString(input)
}

func ValidateBits(nbits int) error {
	_, err := entropy.ValidateBits(nbits)
	return err
}

func ValidateCount(count int) error {
	if count < 1 || count > MaxCount {
		return fmt.Errorf("count must be between 1 and %d (got %d)", MaxCount, count)
	}
	return nil
}

// ValidateTicket checks that text decodes to a non-empty ticket.
func ValidateTicket(text string, c codec.Codec) error {
	b, err := c.Decode(text)
	if err != nil {
		return fmt.Errorf("invalid ticket: %w", err)
	}
	if len(b) == 0 {
		return fmt.Errorf("ticket is empty")
	}
	return nil
}

// ValidateShare decodes and parses one share.
func ValidateShare(text string, c codec.Codec) (shamir.Share, error) {
	wire, err := c.Decode(text)
	if err != nil {
		return shamir.Share{}, fmt.Errorf("invalid share format: %w", err)
	}
	defer secure.Zero(wire)

	share, err := shamir.ParseShare(wire)
	if err != nil {
		return shamir.Share{}, fmt.Errorf("invalid share: %w", err)
	}
	return share, nil
}

func ValidateDerivationPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("derivation path cannot be empty")
	}

	if !pathPattern.MatchString(path) {
		return fmt.Errorf("invalid derivation path format")
	}

	if err := hdkey.ValidatePath(path); err != nil {
		return fmt.Errorf("invalid derivation path: %w", err)
	}
	return nil
}

func ValidateSplitParams(parts, threshold int) error {
	if parts < shamir.MinParts || parts > shamir.MaxParts {
		return fmt.Errorf("parts must be between %d and %d (got %d)", shamir.MinParts, shamir.MaxParts, parts)
	}

	if threshold < 2 || threshold > parts {
		return fmt.Errorf("threshold must be between 2 and %d (got %d)", parts, threshold)
	}

	return nil
}

func ValidateFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected text, json or yaml)", format)
	}
}

// SanitizeInput trims every line and normalizes line endings.
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")

	lines := strings.Split(input, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	return strings.Join(lines, "\n")
}

// SplitLines returns the non-empty, non-comment lines of input.
func SplitLines(input string) []string {
	var out []string
	for _, line := range strings.Split(SanitizeInput(input), "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
