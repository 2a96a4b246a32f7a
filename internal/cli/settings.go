package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newConfigCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective settings to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := st.manager.Path()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			}
			if err := st.manager.SaveConfig(); err != nil {
				return err
			}
			green.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := st.format(cmd)
			if f == "text" {
				f = "yaml"
			}
			_, err := writeStructured(cmd.OutOrStdout(), f, st.cfg)
			return err
		},
	}
	showCmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: json or yaml")

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
