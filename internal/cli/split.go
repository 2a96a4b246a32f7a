package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yapishu/up8-ticket/internal/validation"
	"github.com/yapishu/up8-ticket/pkg/secure"
	"github.com/yapishu/up8-ticket/pkg/storage"
)

// SplitResult is the share set written by split and read back by combine.
// The threshold is recorded for people, combine never enforces it.
type SplitResult struct {
	SetID     string    `json:"set_id" yaml:"set_id"`
	Codec     string    `json:"codec" yaml:"codec"`
	Bits      int       `json:"bits" yaml:"bits"`
	Parts     int       `json:"parts" yaml:"parts"`
	Threshold int       `json:"threshold" yaml:"threshold"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Shares    []string  `json:"shares" yaml:"shares"`
}

func newSplitCommand(st *state) *cobra.Command {
	var (
		ticketText  string
		parts       int
		threshold   int
		profileName string
		outputFile  string
		encrypt     bool
		passFile    string
		force       bool
		format      string
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a ticket into k-of-n shares",
		Long: `Split a ticket into n shares, any k of which reconstruct it.

The ticket is read from --ticket, or from stdin (hidden input on a
terminal). Fewer than k shares reveal nothing about the ticket, but
combining them does not fail either: it silently yields a wrong ticket.`,
		Example: `  # 3-of-5 split, ticket typed at a hidden prompt
  ticket split --parts 5 --threshold 3

  # Pipe a fresh ticket in and save the share set as YAML
  ticket generate --json | jq -r '.tickets[0].ticket' | ticket split -n 3 -k 2 -o shares.yaml

  # Use a saved profile
  ticket split --profile family

  # Seal the share set file under a passphrase
  ticket split -o shares.json --encrypt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if profileName != "" {
				profile, err := st.manager.GetProfile(profileName)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("parts") {
					parts = profile.Parts
				}
				if !cmd.Flags().Changed("threshold") {
					threshold = profile.Threshold
				}
				if profile.Codec != "" && st.codecName == "" {
					if err := st.useCodec(profile.Codec); err != nil {
						return err
					}
				}
			}
			if parts == 0 {
				parts = st.cfg.Defaults.Parts
			}
			if threshold == 0 {
				threshold = st.cfg.Defaults.Threshold
			}
			if err := validation.ValidateSplitParams(parts, threshold); err != nil {
				return err
			}

			if ticketText == "" {
				read, err := readSecret(cmd, "Enter ticket: ")
				if err != nil {
					return err
				}
				ticketText = read
			}
			if err := validation.ValidateTicket(ticketText, st.codec); err != nil {
				return err
			}

			shares, err := st.generator.Share(ticketText, parts, threshold)
			if err != nil {
				return err
			}

			result := SplitResult{
				SetID:     uuid.NewString(),
				Codec:     st.codec.Name(),
				Bits:      ticketBits(st, ticketText),
				Parts:     parts,
				Threshold: threshold,
				CreatedAt: time.Now().UTC().Truncate(time.Second),
				Shares:    shares,
			}

			if encrypt && outputFile == "" {
				return fmt.Errorf("--encrypt requires --output")
			}
			if outputFile != "" {
				return saveSplitResult(cmd, st, result, outputFile, saveOptions{
					encrypt:  encrypt,
					passFile: passFile,
					force:    force,
				})
			}

			done, err := writeStructured(cmd.OutOrStdout(), st.format(cmd), result)
			if done || err != nil {
				return err
			}

			displayShares(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&ticketText, "ticket", "", "Ticket to split (read from stdin if omitted)")
	cmd.Flags().IntVarP(&parts, "parts", "n", 0, "Number of shares to create (2-255)")
	cmd.Flags().IntVarP(&threshold, "threshold", "k", 0, "Shares required to reconstruct (2-parts)")
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Take parts, threshold and codec from a saved profile")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the share set to a file (.json or .yaml)")
	cmd.Flags().BoolVarP(&encrypt, "encrypt", "e", false, "Seal the output file under a passphrase")
	cmd.Flags().StringVar(&passFile, "passphrase-file", "", "Read the sealing passphrase from a file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing output file")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}

func ticketBits(st *state, ticketText string) int {
	b, err := st.codec.Decode(ticketText)
	if err != nil {
		return 0
	}
	defer secure.Zero(b)
	return len(b) * 8
}

type saveOptions struct {
	encrypt  bool
	passFile string
	force    bool
}

func saveSplitResult(cmd *cobra.Command, st *state, result SplitResult, filename string, opts saveOptions) error {
	file := storage.NewSecureFile(filename)
	file.Params = st.cfg.KDFParams()

	exists := file.Exists()
	if exists && !opts.force {
		if !st.cfg.UI.ConfirmActions || !confirm(cmd, fmt.Sprintf("%s exists. Overwrite?", filename)) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", filename)
		}
	}

	format := st.format(cmd)
	if format == "text" {
		format = "json"
		if ext := strings.ToLower(filepath.Ext(filename)); ext == ".yaml" || ext == ".yml" {
			format = "yaml"
		}
	}

	var buf bytes.Buffer
	if _, err := writeStructured(&buf, format, result); err != nil {
		return fmt.Errorf("failed to encode share set: %w", err)
	}

	var pass []byte
	if opts.encrypt {
		p, err := readPassphrase(cmd, opts.passFile, "Passphrase for share file: ")
		if err != nil {
			return err
		}
		pass = p
		defer secure.Zero(pass)
	}

	// The old set is shredded, not just truncated.
	if exists {
		if err := file.Delete(); err != nil {
			return fmt.Errorf("failed to remove %s: %w", filename, err)
		}
	}

	if opts.encrypt {
		if err := file.Save(buf.Bytes(), pass); err != nil {
			return fmt.Errorf("failed to seal share set: %w", err)
		}
		green.Fprintf(cmd.OutOrStdout(), "Sealed shares saved to %s (set %s)\n", filename, result.SetID)
		return nil
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	green.Fprintf(cmd.OutOrStdout(), "Shares saved to %s (set %s)\n", filename, result.SetID)
	return nil
}

func displayShares(cmd *cobra.Command, result SplitResult) {
	w := cmd.OutOrStdout()

	green.Fprintln(w, "=== TICKET SHARES ===")
	fmt.Fprintf(w, "Set %s: %d shares, any %d reconstruct the %d-bit ticket\n\n",
		result.SetID, result.Parts, result.Threshold, result.Bits)

	for i, share := range result.Shares {
		cyan.Fprintf(w, "Share %d of %d:\n", i+1, result.Parts)
		fmt.Fprintln(w, share)
		fmt.Fprintln(w)
	}

	securityNotice(w)
}

// loadSplitResult reads a share set written by split, opening it first if it
// was sealed. Plain files with one share per line are accepted as well.
func loadSplitResult(cmd *cobra.Command, filename, passFile string) (*SplitResult, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	if storage.IsSealed(data) {
		pass, err := readPassphrase(cmd, passFile, "Passphrase for share file: ")
		if err != nil {
			return nil, err
		}
		defer secure.Zero(pass)

		opened, err := storage.NewSecureFile(filename).Load(pass)
		if err != nil {
			return nil, err
		}
		defer secure.Zero(opened)
		data = opened
	}

	var result SplitResult
	if err := yaml.Unmarshal(data, &result); err == nil && len(result.Shares) > 0 {
		return &result, nil
	}

	lines := validation.SplitLines(string(data))
	if len(lines) == 0 {
		return nil, fmt.Errorf("no shares found in %s", filename)
	}
	return &SplitResult{Shares: lines}, nil
}
