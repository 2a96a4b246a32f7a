package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yapishu/up8-ticket/pkg/codec"
	"github.com/yapishu/up8-ticket/pkg/config"
	"github.com/yapishu/up8-ticket/pkg/crypto/gf256"
	"github.com/yapishu/up8-ticket/pkg/crypto/shamir"
	"github.com/yapishu/up8-ticket/pkg/metrics"
	"github.com/yapishu/up8-ticket/pkg/ticket"
)

// state is shared by all subcommands of one invocation. It is filled in by
// the root command's PersistentPreRunE.
type state struct {
	level *slog.LevelVar

	configPath string
	verbose    bool
	jsonOut    bool
	codecName  string
	dumpMetric bool

	manager   *config.ConfigManager
	cfg       *config.Config
	codec     codec.Codec
	generator *ticket.Generator
}

// NewRootCommand builds the ticket command tree. level, if non-nil, is lowered
// to Debug by --verbose.
func NewRootCommand(version string, level *slog.LevelVar) *cobra.Command {
	st := &state{level: level}

	rootCmd := &cobra.Command{
		Use:   "ticket",
		Short: "Generate master tickets and split them into k-of-n shares",
		Long: `Ticket generates high-entropy master secrets ("tickets") from the system
random generator, optionally mixed with timing-jitter entropy or expanded
through HMAC-DRBG, and splits them with Shamir's secret sharing over GF(256).

Tickets and shares are rendered in the syllabic @q style by default
(~dozmar-binwan), or as hex with --codec hex.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !st.dumpMetric {
				return nil
			}
			return metrics.WriteText(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&st.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.BoolVarP(&st.jsonOut, "json", "j", false, "Output in JSON format")
	flags.StringVar(&st.configPath, "config", "", "Config file (default $TICKET_CONFIG or ~/.config/ticket/config.yaml)")
	flags.StringVar(&st.codecName, "codec", "", "Text codec for tickets and shares: q or hex")
	flags.BoolVar(&st.dumpMetric, "metrics", false, "Print Prometheus metrics to stderr on exit")

	rootCmd.AddCommand(
		newGenerateCommand(st),
		newSplitCommand(st),
		newCombineCommand(st),
		newVerifyCommand(st),
		newDeriveCommand(st),
		newProfileCommand(st),
		newConfigCommand(st),
	)

	return rootCmd
}

func (st *state) init() error {
	if st.verbose && st.level != nil {
		st.level.Set(slog.LevelDebug)
	}

	manager, err := config.NewConfigManager(st.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	st.manager = manager
	st.cfg = manager.GetConfig()

	if !st.cfg.UI.UseColor {
		color.NoColor = true
	}

	st.generator = ticket.New()
	name := st.codecName
	if name == "" {
		name = st.cfg.Defaults.Codec
	}
	if err := st.useCodec(name); err != nil {
		return err
	}
	st.generator.Auxiliary = st.cfg.AuxiliarySource()
	st.generator.Sharer = shamir.NewSharer(gf256.Default())
	st.generator.Logger = slog.Default()

	slog.Debug("Configuration loaded",
		"path", manager.Path(),
		"codec", st.codec.Name(),
		"pid", os.Getpid())

	return nil
}

// useCodec switches the text codec for the rest of the invocation.
func (st *state) useCodec(name string) error {
	c, err := codec.ByName(name)
	if err != nil {
		return err
	}
	st.codec = c
	st.generator.Codec = c
	return nil
}

// format resolves the output format: --json wins, then an explicit --format,
// then the configured default.
func (st *state) format(cmd *cobra.Command) string {
	if st.jsonOut {
		return "json"
	}
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		return f.Value.String()
	}
	return st.cfg.UI.OutputFormat
}
