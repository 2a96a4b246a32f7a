package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yapishu/up8-ticket/internal/validation"
	"github.com/yapishu/up8-ticket/pkg/crypto/shamir"
	"github.com/yapishu/up8-ticket/pkg/metrics"
	"github.com/yapishu/up8-ticket/pkg/secure"
)

type ShareInfo struct {
	Index int    `json:"index" yaml:"index"`
	Bytes int    `json:"bytes" yaml:"bytes"`
	Valid bool   `json:"valid" yaml:"valid"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

type VerifyResult struct {
	Codec      string      `json:"codec" yaml:"codec"`
	Consistent bool        `json:"consistent" yaml:"consistent"`
	Shares     []ShareInfo `json:"shares" yaml:"shares"`
}

func newVerifyCommand(st *state) *cobra.Command {
	var (
		inputFile string
		passFile  string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "verify [share...]",
		Short: "Check that shares decode and belong together",
		Long: `Decode each share and report its index and length.

Shares of one set have distinct non-zero indexes and equal lengths. This
cannot prove that enough shares are present or that they came from the
same split.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			shares := args
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
			}
			if len(shares) == 0 {
				lines, err := readLines(cmd, "Enter shares to verify, one per line:")
				if err != nil {
					return err
				}
				shares = lines
			}
			if len(shares) == 0 {
				return fmt.Errorf("no shares provided")
			}

			result := verifyShares(st, shares)

			done, err := writeStructured(cmd.OutOrStdout(), st.format(cmd), result)
			if err != nil {
				return err
			}
			if !done {
				displayVerify(cmd, result)
			}

			if !result.Consistent {
				return fmt.Errorf("share verification failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read shares from a file")
	cmd.Flags().StringVar(&passFile, "passphrase-file", "", "Read the passphrase of a sealed file from a file")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}

func verifyShares(st *state, texts []string) VerifyResult {
	start := time.Now()
	result := VerifyResult{Codec: st.codec.Name(), Consistent: true}

	seen := make(map[byte]bool)
	expected := -1
	for _, text := range texts {
		info := ShareInfo{}
		share, err := validation.ValidateShare(text, st.codec)
		if err == nil {
			if expected < 0 {
				expected = len(share.Data)
			}
			info, err = checkShare(share, expected, seen)
		}

		if err != nil {
			info.Error = err.Error()
			result.Consistent = false
			metrics.RecordError(metrics.OpVerify, "invalid_share")
		} else {
			info.Valid = true
			seen[share.Index] = true
		}
		result.Shares = append(result.Shares, info)
	}

	status := metrics.StatusSuccess
	if !result.Consistent {
		status = metrics.StatusError
	}
	metrics.RecordOperation(metrics.OpVerify, metrics.StrategyNone, status, time.Since(start).Seconds())

	return result
}

// checkShare reports the share's shape and wipes its data.
func checkShare(share shamir.Share, expected int, seen map[byte]bool) (ShareInfo, error) {
	defer secure.Zero(share.Data)

	info := ShareInfo{Index: int(share.Index), Bytes: len(share.Data)}
	if err := shamir.VerifyShare(share, expected); err != nil {
		return info, err
	}
	if seen[share.Index] {
		return info, fmt.Errorf("duplicate share index %d", share.Index)
	}
	return info, nil
}

func displayVerify(cmd *cobra.Command, result VerifyResult) {
	w := cmd.OutOrStdout()
	for i, info := range result.Shares {
		if info.Valid {
			green.Fprintf(w, "✓ ")
			fmt.Fprintf(w, "Share %d: index %d, %d bytes\n", i+1, info.Index, info.Bytes)
		} else {
			red.Fprintf(w, "✗ ")
			fmt.Fprintf(w, "Share %d: %s\n", i+1, info.Error)
		}
	}

	fmt.Fprintln(w)
	if result.Consistent {
		green.Fprintf(w, "All %d shares are well formed\n", len(result.Shares))
	} else {
		red.Fprintln(w, "Some shares are invalid")
	}
}
