package ticket

import (
	"fmt"
	"strings"
)

// Strategy selects how entropy is gathered for a ticket.
type Strategy string

const (
	// Simple reads the system generator only.
	Simple Strategy = "simple"
	// Mixed XORs the system generator with auxiliary timing entropy.
	Mixed Strategy = "mixed"
	// DRBG expands system entropy through HMAC-DRBG, with auxiliary entropy
	// as the nonce.
	DRBG Strategy = "drbg"
)

var strategies = []Strategy{Simple, Mixed, DRBG}

func Strategies() []Strategy {
	out := make([]Strategy, len(strategies))
	copy(out, strategies)
	return out
}

func ParseStrategy(s string) (Strategy, error) {
	want := Strategy(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range strategies {
		if st == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q (expected simple, mixed or drbg)", s)
}

func (s Strategy) String() string {
	return string(s)
}
