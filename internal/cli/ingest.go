package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"ragkb/internal/service"
)

func newIngestCommand(a *app) *cobra.Command {
	var (
		text   string
		source string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Chunk, embed and store documents",
		Long: `Ingest one or more files, or raw text with --text and --source.

Each file is stored under its base name. Ingesting a source again replaces
its earlier chunks.

Examples:
  ragkb ingest docs/*.md
  ragkb ingest --text "Oracle Logs record validator output." --source notes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var reports []*service.IngestReport
			if text != "" {
				if source == "" {
					return errors.New("--source is required with --text")
				}
				r, err := a.svc.IngestText(ctx, text, source)
				if err != nil {
					return err
				}
				reports = append(reports, r)
			}
			paths, err := expandPaths(args)
			if err != nil {
				return err
			}
			if text == "" && len(paths) == 0 {
				return errors.New("nothing to ingest: pass files or --text")
			}
			for _, p := range paths {
				r, err := a.svc.IngestFile(ctx, p)
				if err != nil {
					return err
				}
				reports = append(reports, r)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), reports)
			}
			for _, r := range reports {
				printReport(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "raw text to ingest")
	cmd.Flags().StringVar(&source, "source", "", "source label for --text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	return cmd
}

// expandPaths resolves glob patterns. A pattern without matches is kept as a
// literal path so the missing file is reported by ingest.
func expandPaths(args []string) ([]string, error) {
	var out []string
	for _, p := range args {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if matches == nil {
			matches = []string{p}
		}
		out = append(out, matches...)
	}
	return out, nil
}
