package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yapishu/up8-ticket/pkg/crypto/mnemonic"
	"github.com/yapishu/up8-ticket/pkg/secure"
)

type CombineResult struct {
	Ticket   string `json:"ticket" yaml:"ticket"`
	Bits     int    `json:"bits" yaml:"bits"`
	Shares   int    `json:"shares" yaml:"shares"`
	Mnemonic string `json:"mnemonic,omitempty" yaml:"mnemonic,omitempty"`
}

func newCombineCommand(st *state) *cobra.Command {
	var (
		inputFile    string
		passFile     string
		showMnemonic bool
		format       string
	)

	cmd := &cobra.Command{
		Use:   "combine [share...]",
		Short: "Reconstruct a ticket from shares",
		Long: `Reconstruct a ticket from k or more shares.

Shares come from the arguments, from a file written by split (--input), or
from stdin one per line. Supplying fewer shares than the threshold is not
detected and produces a wrong ticket.`,
		Example: `  # Shares as arguments
  ticket combine ~share-one ~share-two ~share-three

  # From a saved share set
  ticket combine --input shares.yaml

  # Interactively
  ticket combine`,
		RunE: func(cmd *cobra.Command, args []string) error {
			shares := args
			threshold := 0

			if inputFile != "" {
				set, err := loadSplitResult(cmd, inputFile, passFile)
				if err != nil {
					return fmt.Errorf("failed to read shares: %w", err)
				}
				if set.Codec != "" && st.codecName == "" {
					if err := st.useCodec(set.Codec); err != nil {
						return err
					}
				}
				shares = append(shares, set.Shares...)
				threshold = set.Threshold
			}

			if len(shares) == 0 {
				lines, err := readLines(cmd, "Enter shares, one per line:")
				if err != nil {
					return err
				}
				shares = lines
			}
			if len(shares) == 0 {
				return fmt.Errorf("no shares provided")
			}

			if threshold > 0 && len(shares) < threshold {
				yellow.Fprintf(cmd.ErrOrStderr(),
					"Warning: %d shares given but the set needs %d; the result will be wrong\n",
					len(shares), threshold)
			}

			ticketText, err := st.generator.Combine(shares)
			if err != nil {
				return err
			}

			raw, err := st.codec.Decode(ticketText)
			if err != nil {
				return err
			}
			defer secure.Zero(raw)

			result := CombineResult{
				Ticket: ticketText,
				Bits:   len(raw) * 8,
				Shares: len(shares),
			}

			if showMnemonic {
				m, err := mnemonic.FromTicket(raw)
				if err != nil {
					return err
				}
				result.Mnemonic = m.Words()
			}

			done, err := writeStructured(cmd.OutOrStdout(), st.format(cmd), result)
			if done || err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			green.Fprintf(w, "Ticket reconstructed from %d shares (%d bits)\n\n", result.Shares, result.Bits)
			fmt.Fprintln(w, result.Ticket)
			if result.Mnemonic != "" {
				fmt.Fprintln(w)
				cyan.Fprintln(w, "Mnemonic:")
				fmt.Fprintln(w, result.Mnemonic)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read shares from a file")
	cmd.Flags().StringVar(&passFile, "passphrase-file", "", "Read the passphrase of a sealed file from a file")
	cmd.Flags().BoolVarP(&showMnemonic, "mnemonic", "m", false, "Also print the ticket as BIP39 words")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}
