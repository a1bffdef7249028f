package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const defaultDebounce = 500 * time.Millisecond

func newWatchCommand(a *app) *cobra.Command {
	var (
		exts     string
		initial  bool
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Ingest files in a directory as they are written",
		Long: `Watch a directory and re-ingest each matching file after it changes.

Bursts of writes to one file are collapsed into a single ingest. Press
Ctrl+C to stop watching.

Examples:
  ragkb watch ./docs
  ragkb watch --ext .md --initial ./notes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			info, err := os.Stat(dir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}
			filter := extFilter(exts)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer cleanupWatcher(watcher, a.logger)
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch directory: %w", err)
			}

			out := cmd.OutOrStdout()
			ingest := func(ctx context.Context, path string) error {
				r, err := a.svc.IngestFile(ctx, path)
				if err != nil {
					return err
				}
				printReport(out, r)
				return nil
			}

			if initial {
				if err := ingestExisting(ctx, dir, filter, ingest, a.logger); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "watching %s (Ctrl+C to stop)\n", dir)
			return watchLoop(ctx, watcher.Events, watcher.Errors, filter, debounce, ingest, a.logger)
		},
	}
	cmd.Flags().StringVar(&exts, "ext", ".md,.txt", "comma-separated file extensions to ingest")
	cmd.Flags().BoolVar(&initial, "initial", false, "ingest matching files already in the directory first")
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before a changed file is ingested")
	return cmd
}

type ingestFunc func(ctx context.Context, path string) error

// extFilter returns a predicate accepting paths with one of the listed
// extensions, compared case-insensitively. An empty list accepts everything.
func extFilter(list string) func(string) bool {
	var exts []string
	for _, e := range strings.Split(list, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return func(path string) bool {
		if len(exts) == 0 {
			return true
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
		return false
	}
}

func ingestExisting(ctx context.Context, dir string, accept func(string) bool, ingest ingestFunc, logger *slog.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || !accept(e.Name()) {
			continue
		}
		if err := ingest(ctx, filepath.Join(dir, e.Name())); err != nil {
			logger.Warn("initial ingest failed", "path", e.Name(), "err", err)
		}
	}
	return nil
}

// watchLoop collects write and create events and ingests each path once it
// has been quiet for debounce. It returns nil when ctx is cancelled.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	accept func(string) bool, debounce time.Duration, ingest ingestFunc, logger *slog.Logger) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce / 2)
	defer ticker.Stop()

	flush := func(now time.Time, force bool) {
		for path, seen := range pending {
			if !force && now.Sub(seen) < debounce {
				continue
			}
			delete(pending, path)
			if err := ingest(ctx, path); err != nil {
				logger.Warn("ingest failed", "path", path, "err", err)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				flush(time.Now(), true)
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				logger.Debug("ignoring event", "op", ev.Op.String(), "path", ev.Name)
				continue
			}
			if !accept(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Warn("watcher overflow, some changes may be missed")
				continue
			}
			logger.Error("watcher error", "err", err)
		case now := <-ticker.C:
			flush(now, false)
		}
	}
}

// cleanupWatcher safely closes watcher with error logging
func cleanupWatcher(w io.Closer, logger *slog.Logger) {
	if err := w.Close(); err != nil {
		logger.Warn("failed to close watcher", "err", err)
	}
}
