package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReembedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reembed",
		Short: "Re-embed every stored chunk with the configured embedder",
		Long:  "Rewrite all non-quarantined embeddings, e.g. after switching embedder models.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.svc.Reembed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "re-embedded %d chunks\n", n)
			return nil
		},
	}
}

func newQuarantineCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quarantine <chunk-id...>",
		Short: "Exclude chunks from search without deleting them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.svc.Quarantine(cmd.Context(), args...)
			if err != nil {
				return err
			}
			if n < len(args) {
				warnColor.Fprintf(cmd.ErrOrStderr(), "%d of %d ids were unknown or already quarantined\n", len(args)-n, len(args))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "quarantined %d chunks\n", n)
			return nil
		},
	}
}

func newStatsCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store size, dimension and sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.svc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			printStats(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print stats as JSON")
	return cmd
}
