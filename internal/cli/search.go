package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragkb/internal/domain"
	"ragkb/internal/search"
)

func newSearchCommand(a *app) *cobra.Command {
	var (
		limit    int
		bySource bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank stored chunks against a query",
		Long: `Search embeds the query and ranks stored chunks by cosine similarity.

With --by-source, results are collapsed to one line per source holding its
best score.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("query must not be empty")
			}
			out := cmd.OutOrStdout()
			if bySource {
				rel, err := a.svc.Relevant(cmd.Context(), domain.SearchRequest{Query: query, Limit: limit})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, rel)
				}
				printRelevance(out, rel)
				return nil
			}
			results, err := a.svc.Search(cmd.Context(), query, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, results)
			}
			printResults(out, results)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, fmt.Sprintf("maximum results (default from config, else %d)", search.DefaultLimit))
	cmd.Flags().BoolVar(&bySource, "by-source", false, "one line per source with its best score")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}
