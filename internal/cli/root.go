package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ragkb/internal/chunker"
	"ragkb/internal/config"
	"ragkb/internal/logging"
	"ragkb/internal/service"
	"ragkb/internal/summarizer"
)

// options holds the global flags shared by every subcommand.
type options struct {
	cfgFile string
	verbose bool
	noColor bool
}

// app is assembled once per invocation from the loaded config.
type app struct {
	cfg    *config.AppConfig
	logger *slog.Logger
	svc    *service.RAGServiceImpl
}

// NewRootCommand creates the root command
func NewRootCommand(version string) *cobra.Command {
	opts := &options{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "ragkb",
		Short: "Local retrieval knowledge base",
		Long: `ragkb chunks documents, embeds the chunks and keeps them in a local vector
store, then answers similarity queries against that store.

Stored vectors that no longer match the configured embedder's dimension are
re-embedded automatically on the next search.`,
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				color.NoColor = true
			}
			return a.setup(opts, cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newIngestCommand(a))
	rootCmd.AddCommand(newSearchCommand(a))
	rootCmd.AddCommand(newReembedCommand(a))
	rootCmd.AddCommand(newQuarantineCommand(a))
	rootCmd.AddCommand(newStatsCommand(a))
	rootCmd.AddCommand(newWatchCommand(a))
	rootCmd.AddCommand(newTUICommand(a))

	return rootCmd
}

func (a *app) setup(opts *options, logOut io.Writer) error {
	var (
		cfg *config.AppConfig
		err error
	)
	if opts.cfgFile == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(opts.cfgFile)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	level := cfg.Log.Level
	if opts.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Format, logOut)
	if err != nil {
		return err
	}

	emb, err := newEmbedder(cfg, logger)
	if err != nil {
		return err
	}
	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}
	ch, err := chunker.NewWindowChunker(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
	if err != nil {
		return err
	}
	logger.Debug("configured", "embedder", emb.Name(), "backend", backend.Name(), "location", backend.Location(),
		"chunk_size", cfg.Chunker.ChunkSize, "overlap", cfg.Chunker.Overlap)

	a.cfg = cfg
	a.logger = logger
	a.svc = service.NewRAGService(ch, emb, backend, summarizer.NewExtractive(),
		service.WithLogger(logger),
		service.WithSummaryMaxSentences(cfg.Summarizer.MaxSentences),
		service.WithDefaultLimit(cfg.Search.Limit),
	)
	return nil
}
