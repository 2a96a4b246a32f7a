package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yapishu/up8-ticket/pkg/config"
)

func newProfileCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage saved split profiles",
		Long: `Profiles store a parts/threshold/codec combination under a name so that
"ticket split --profile NAME" can reuse it. They live next to the config
file in profiles.json.`,
	}

	cmd.AddCommand(
		newProfileAddCommand(st),
		newProfileListCommand(st),
		newProfileRemoveCommand(st),
	)

	return cmd
}

func newProfileAddCommand(st *state) *cobra.Command {
	var (
		description string
		parts       int
		threshold   int
		codecName   string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:     "add NAME",
		Short:   "Add or replace a profile",
		Args:    cobra.ExactArgs(1),
		Example: `  ticket profile add family --parts 5 --threshold 3 --description "Family recovery"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := &config.ShareProfile{
				Name:        args[0],
				Description: description,
				Parts:       parts,
				Threshold:   threshold,
				Codec:       strings.ToLower(strings.TrimSpace(codecName)),
				Tags:        tags,
			}
			if err := st.manager.AddProfile(profile); err != nil {
				return err
			}

			green.Fprintf(cmd.OutOrStdout(), "Profile %q saved (%d-of-%d)\n", profile.Name, profile.Threshold, profile.Parts)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "What the profile is for")
	cmd.Flags().IntVarP(&parts, "parts", "n", 0, "Number of shares")
	cmd.Flags().IntVarP(&threshold, "threshold", "k", 0, "Shares required to reconstruct")
	cmd.Flags().StringVar(&codecName, "profile-codec", "", "Codec for shares made with this profile")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags (repeatable)")
	_ = cmd.MarkFlagRequired("parts")
	_ = cmd.MarkFlagRequired("threshold")

	return cmd
}

func newProfileListCommand(st *state) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles := st.manager.ListProfiles()

			done, err := writeStructured(cmd.OutOrStdout(), st.format(cmd), profiles)
			if done || err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(profiles) == 0 {
				yellow.Fprintln(w, "No profiles saved")
				return nil
			}
			for _, p := range profiles {
				cyan.Fprintf(w, "%s", p.Name)
				fmt.Fprintf(w, "  %d-of-%d", p.Threshold, p.Parts)
				if p.Codec != "" {
					fmt.Fprintf(w, "  codec=%s", p.Codec)
				}
				if len(p.Tags) > 0 {
					fmt.Fprintf(w, "  [%s]", strings.Join(p.Tags, ", "))
				}
				fmt.Fprintln(w)
				if p.Description != "" {
					fmt.Fprintf(w, "    %s\n", p.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}

func newProfileRemoveCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a profile",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.manager.DeleteProfile(args[0]); err != nil {
				return err
			}
			green.Fprintf(cmd.OutOrStdout(), "Profile %q removed\n", args[0])
			return nil
		},
	}
}
