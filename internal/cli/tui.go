package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ragkb/internal/tui"
)

func newTUICommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "tui [files...]",
		Short: "Interactive search, optionally ingesting files first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			paths, err := expandPaths(args)
			if err != nil {
				return err
			}
			var digests []string
			for _, p := range paths {
				r, err := a.svc.IngestFile(ctx, p)
				if err != nil {
					return err
				}
				if r.Summary != "" {
					digests = append(digests, r.Summary)
				}
			}
			stats, err := a.svc.Stats(ctx)
			if err != nil {
				return err
			}
			summary := fmt.Sprintf("%d chunks from %d sources · %s · dim %d",
				stats.Chunks, len(stats.Sources), stats.Embedder, stats.Dimension)
			if len(digests) > 0 {
				summary += "\n" + strings.Join(digests, " ")
			}
			if limit <= 0 {
				limit = a.cfg.Search.Limit
			}
			m := tui.New(a.svc, summary, limit)
			_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
			return err
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "results per query (default from config)")
	return cmd
}
