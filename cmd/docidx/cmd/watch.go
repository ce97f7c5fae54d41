package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/docidx/docidx/internal/document"
	"github.com/docidx/docidx/internal/output"
	"github.com/docidx/docidx/internal/workctx"
)

// fileChange is one batch of documents parsed from a changed file, handed
// from the scanning goroutine to the indexing goroutine.
type fileChange struct {
	path string
	docs []*document.Document
}

type watchOptions struct {
	dir     string
	idField string
	view    string
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch <name>",
		Short: "Watch a directory of newline-delimited JSON files and reindex them on change",
		Long: `Watch --dir for created or modified files and re-run the
equivalent of "docidx index" against each one as it changes, until
interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", ".", "Directory to watch for newline-delimited JSON files")
	cmd.Flags().StringVar(&opts.idField, "id-field", "id", "JSON field supplying each record's document key")
	cmd.Flags().StringVar(&opts.view, "view", "", `View Generator to run each record through before indexing. "code" splits a record's "content" field into one index record per symbol via the tree-sitter chunker; "graph" decodes a record's "json" field into one index record per leaf path; "count" emits the map phase of a map-reduce word count; the default indexes each record as-is`)

	return cmd
}

func runWatch(cmd *cobra.Command, name string, opts watchOptions) error {
	absDir, err := filepath.Abs(opts.dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", opts.dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(absDir); err != nil {
		return fmt.Errorf("watching %s: %w", absDir, err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	idx, err := e.Get(name)
	if err != nil {
		return fmt.Errorf("opening index %q: %w", name, err)
	}

	indexingCfg, err := loadIndexingConfig()
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("", "watching %s for changes to index %q (ctrl-C to stop)", absDir, name)

	transform, closeView, err := resolveViewTransform(opts.view)
	if err != nil {
		return err
	}
	defer closeView()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	changes := make(chan fileChange)

	// Scanning goroutine: drains fsnotify's Events/Errors channels and
	// parses each changed file, handing the result off to the indexing
	// goroutine so a slow reindex never backs up the watcher's own
	// internal event queue.
	g.Go(func() error {
		defer close(changes)
		for {
			select {
			case <-gctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				f, err := os.Open(event.Name)
				if err != nil {
					slog.Warn("docidx watch: opening changed file failed",
						slog.String("path", event.Name), slog.Any("error", err))
					continue
				}
				docs, err := readDocuments(f, opts.idField)
				f.Close()
				if err != nil {
					slog.Warn("docidx watch: parsing changed file failed",
						slog.String("path", event.Name), slog.Any("error", err))
					continue
				}
				if len(docs) == 0 {
					continue
				}

				select {
				case changes <- fileChange{path: event.Name, docs: docs}:
				case <-gctx.Done():
					return nil
				}

			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				slog.Warn("docidx watch: filesystem watcher error", slog.Any("error", watchErr))
			}
		}
	})

	// Indexing goroutine: reindexes each batch as the scanner produces
	// it, concurrently with the scanner parsing the next one.
	g.Go(func() error {
		for change := range changes {
			wc := workctx.New(indexingCfg)
			if err := idx.IndexDocuments(transform, change.docs, wc, e.Actions(), time.Time{}); err != nil {
				slog.Warn("docidx watch: reindexing changed file failed",
					slog.String("path", change.path), slog.Any("error", err))
				continue
			}
			out.Statusf("", "reindexed %d document(s) from %s", len(change.docs), filepath.Base(change.path))
		}
		return nil
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return err
	}
	return nil
}
