package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yapishu/up8-ticket/internal/validation"
	"github.com/yapishu/up8-ticket/pkg/crypto/hdkey"
	"github.com/yapishu/up8-ticket/pkg/crypto/mnemonic"
	"github.com/yapishu/up8-ticket/pkg/metrics"
	"github.com/yapishu/up8-ticket/pkg/secure"
)

type DeriveResult struct {
	Path               string `json:"path" yaml:"path"`
	Fingerprint        string `json:"fingerprint" yaml:"fingerprint"`
	PublicKey          string `json:"public_key" yaml:"public_key"`
	ExtendedPublicKey  string `json:"xpub" yaml:"xpub"`
	ExtendedPrivateKey string `json:"xprv,omitempty" yaml:"xprv,omitempty"`
}

func newDeriveCommand(st *state) *cobra.Command {
	var (
		ticketText  string
		fromWords   bool
		path        string
		account     uint32
		salt        string
		showPrivate bool
		format      string
	)

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive BIP32 keys from a ticket",
		Long: `Derive a BIP32 key from a ticket.

The ticket is stretched with argon2id into a 64-byte seed, which becomes the
root of a BIP32 tree. Cost parameters and the default salt come from the
derive section of the config file.`,
		Example: `  # Default path from the config file
  ticket derive

  # Explicit path
  ticket derive --path "m/44'/0'/1'/0/0"

  # Ticket given as BIP39 words
  ticket derive --words --account 2`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			start := time.Now()
			defer func() {
				status := metrics.StatusSuccess
				if err != nil {
					status = metrics.StatusError
					metrics.RecordError(metrics.OpDerive, "derive")
				}
				metrics.RecordOperation(metrics.OpDerive, metrics.StrategyNone, status, time.Since(start).Seconds())
			}()

			switch {
			case cmd.Flags().Changed("account"):
				path = fmt.Sprintf("m/44'/0'/%d'/0/0", account)
			case path == "":
				path = st.cfg.Derive.Path
			}
			if err := validation.ValidateDerivationPath(path); err != nil {
				return err
			}
			if !cmd.Flags().Changed("salt") {
				salt = st.cfg.Derive.Salt
			}

			if ticketText == "" {
				prompt := "Enter ticket: "
				if fromWords {
					prompt = "Enter mnemonic words: "
				}
				read, err := readSecret(cmd, prompt)
				if err != nil {
					return err
				}
				ticketText = read
			}

			raw, err := decodeTicketInput(st, ticketText, fromWords)
			if err != nil {
				return err
			}
			defer secure.Zero(raw)

			params := hdkey.StretchParams{
				Time:    st.cfg.Derive.Time,
				Memory:  st.cfg.Derive.MemoryKiB,
				Threads: st.cfg.Derive.Threads,
			}
			master, err := hdkey.FromTicket(raw, []byte(salt), params)
			if err != nil {
				return fmt.Errorf("failed to create master key: %w", err)
			}

			key, err := master.DerivePath(path)
			if err != nil {
				return fmt.Errorf("failed to derive key: %w", err)
			}

			result := DeriveResult{
				Path:              key.Path(),
				Fingerprint:       key.Fingerprint(),
				PublicKey:         key.PublicKeyHex(),
				ExtendedPublicKey: key.ExtendedPublicKey(),
			}
			if showPrivate {
				result.ExtendedPrivateKey = key.ExtendedPrivateKey()
			}

			done, err := writeStructured(cmd.OutOrStdout(), st.format(cmd), result)
			if done || err != nil {
				return err
			}

			displayDerive(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&ticketText, "ticket", "", "Ticket to derive from (read from stdin if omitted)")
	cmd.Flags().BoolVarP(&fromWords, "words", "w", false, "Read the ticket as BIP39 words")
	cmd.Flags().StringVarP(&path, "path", "p", "", "BIP32 derivation path")
	cmd.Flags().Uint32VarP(&account, "account", "a", 0, "Account number, shorthand for m/44'/0'/N'/0/0")
	cmd.Flags().StringVar(&salt, "salt", "", "Salt for seed stretching")
	cmd.Flags().BoolVar(&showPrivate, "show-private", false, "Show the extended private key (DANGEROUS)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}

func decodeTicketInput(st *state, input string, fromWords bool) ([]byte, error) {
	if fromWords {
		m, err := mnemonic.FromWords(input)
		if err != nil {
			return nil, err
		}
		return m.Ticket()
	}

	if err := validation.ValidateTicket(input, st.codec); err != nil {
		return nil, err
	}
	return st.codec.Decode(input)
}

func displayDerive(cmd *cobra.Command, result DeriveResult) {
	w := cmd.OutOrStdout()

	green.Fprintln(w, "=== DERIVED KEY ===")
	fmt.Fprintln(w)

	yellow.Fprintln(w, "Derivation Path:")
	fmt.Fprintf(w, "  %s\n\n", result.Path)

	yellow.Fprintln(w, "Fingerprint:")
	fmt.Fprintf(w, "  %s\n\n", result.Fingerprint)

	yellow.Fprintln(w, "Public Key:")
	fmt.Fprintf(w, "  %s\n\n", result.PublicKey)

	yellow.Fprintln(w, "Extended Public Key:")
	fmt.Fprintf(w, "  %s\n\n", result.ExtendedPublicKey)

	if result.ExtendedPrivateKey != "" {
		red.Fprintln(w, "Extended Private Key (KEEP SECRET):")
		fmt.Fprintf(w, "  %s\n\n", result.ExtendedPrivateKey)
	}
}
