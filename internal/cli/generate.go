package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yapishu/up8-ticket/internal/validation"
	"github.com/yapishu/up8-ticket/pkg/crypto/mnemonic"
	"github.com/yapishu/up8-ticket/pkg/secure"
	"github.com/yapishu/up8-ticket/pkg/ticket"
)

type GeneratedTicket struct {
	Ticket   string `json:"ticket" yaml:"ticket"`
	Mnemonic string `json:"mnemonic,omitempty" yaml:"mnemonic,omitempty"`
}

type GenerateResult struct {
	Strategy string            `json:"strategy" yaml:"strategy"`
	Bits     int               `json:"bits" yaml:"bits"`
	Codec    string            `json:"codec" yaml:"codec"`
	Tickets  []GeneratedTicket `json:"tickets" yaml:"tickets"`
}

func newGenerateCommand(st *state) *cobra.Command {
	var (
		bits         int
		strategyName string
		addlHex      string
		count        int
		withWords    bool
		format       string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate new master tickets",
		Long: `Generate one or more master tickets.

Strategies:
  simple  system random generator only
  mixed   system generator XOR timing-jitter entropy
  drbg    HMAC-DRBG seeded from the system generator, with timing-jitter
          entropy as nonce (needs at least 192 bits)

Optional additional input (--addl, hex) is mixed into simple and mixed
tickets and used as the DRBG personalization string.`,
		Example: `  # 256-bit ticket with the configured strategy
  ticket generate

  # 128-bit ticket as hex
  ticket generate --bits 128 --codec hex

  # Three DRBG tickets with BIP39 words, as JSON
  ticket generate --strategy drbg --count 3 --mnemonic --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("bits") {
				bits = st.cfg.Defaults.Bits
			}
			if !cmd.Flags().Changed("strategy") {
				strategyName = st.cfg.Defaults.Strategy
			}
			if !cmd.Flags().Changed("mnemonic") {
				withWords = st.cfg.Defaults.Mnemonic
			}

			if err := validation.ValidateBits(bits); err != nil {
				return err
			}
			if err := validation.ValidateCount(count); err != nil {
				return err
			}
			strategy, err := ticket.ParseStrategy(strategyName)
			if err != nil {
				return err
			}
			addl, err := validation.ParseAdditionalInput(addlHex)
			if err != nil {
				return err
			}
			defer secure.Zero(addl)

			result := GenerateResult{
				Strategy: strategy.String(),
				Bits:     bits,
				Codec:    st.codec.Name(),
				Tickets:  make([]GeneratedTicket, 0, count),
			}

			start := time.Now()
			for i := 0; i < count; i++ {
				raw, err := st.generator.Raw(cmd.Context(), strategy, bits, addl)
				if err != nil {
					return err
				}

				t := GeneratedTicket{Ticket: st.codec.Encode(raw)}
				if withWords {
					if m, err := mnemonic.FromTicket(raw); err == nil {
						t.Mnemonic = m.Words()
					}
				}
				secure.Zero(raw)
				result.Tickets = append(result.Tickets, t)
			}

			st.generator.Logger.Debug("Tickets generated",
				"count", count,
				"strategy", strategy,
				"bits", bits,
				"duration", time.Since(start))

			out := cmd.OutOrStdout()
			done, err := writeStructured(out, st.format(cmd), result)
			if done || err != nil {
				return err
			}

			return outputGenerateText(cmd, result, withWords)
		},
	}

	cmd.Flags().IntVarP(&bits, "bits", "b", 256, "Ticket size in bits (multiple of 8)")
	cmd.Flags().StringVarP(&strategyName, "strategy", "s", string(ticket.Mixed), "Entropy strategy: simple, mixed or drbg")
	cmd.Flags().StringVar(&addlHex, "addl", "", "Additional input in hex")
	cmd.Flags().IntVarP(&count, "count", "c", 1, "Number of tickets to generate")
	cmd.Flags().BoolVarP(&withWords, "mnemonic", "m", false, "Also show BIP39 words (16..32 byte tickets)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}

func outputGenerateText(cmd *cobra.Command, result GenerateResult, withWords bool) error {
	w := cmd.OutOrStdout()

	green.Fprintf(w, "=== NEW TICKET%s ===\n", plural(len(result.Tickets)))
	fmt.Fprintf(w, "%d bits, %s strategy, %s codec\n\n", result.Bits, result.Strategy, result.Codec)

	for i, t := range result.Tickets {
		if len(result.Tickets) > 1 {
			cyan.Fprintf(w, "Ticket %d:\n", i+1)
		}
		fmt.Fprintln(w, t.Ticket)

		if withWords {
			if t.Mnemonic == "" {
				yellow.Fprintf(w, "(no BIP39 rendering for %d-bit tickets)\n", result.Bits)
			} else {
				yellow.Fprintln(w, "BIP39 words:")
				fmt.Fprintln(w, t.Mnemonic)
			}
		}
		fmt.Fprintln(w)
	}

	securityNotice(w)
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "S"
}
