package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-bundler/internal/async"
	"github.com/joseph-ayodele/invoice-bundler/internal/common"
	"github.com/joseph-ayodele/invoice-bundler/internal/ingest"
	"github.com/joseph-ayodele/invoice-bundler/internal/pipeline"
)

var (
	watchOut         string
	watchCorrections string
	watchVariant     string
	watchInitialScan bool
	watchDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Bundle purchase orders as they land in an inbox directory",
	Long: `Watches the given directories and processes every new or rewritten
purchase-order PDF, one at a time in arrival order. Files with content already
processed in this session are ignored. Stops on interrupt.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "output directory (default from config)")
	watchCmd.Flags().StringVar(&watchCorrections, "corrections", "", "JSON file with per-file field corrections")
	watchCmd.Flags().StringVar(&watchVariant, "variant", "", "invoice variant: standard or out_of_scope")
	watchCmd.Flags().BoolVar(&watchInitialScan, "initial-scan", false, "process PDFs already present at start")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "coalesce bursts of file events")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	outDir := cfg.Output.Dir
	if watchOut != "" {
		outDir = watchOut
	}

	a, err := newApp(ctx, cfg, appOptions{
		Corrections: watchCorrections,
		Variant:     watchVariant,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("app.close.failed", "error", err)
		}
	}()

	ing := ingest.NewFSIngestor(logger)
	q := async.NewProcessorQueue(bundleHandler(a, outDir, cmd), logger,
		async.WithProcessTimeout(cfg.Render.Timeout.Duration*3),
		async.WithErrorHook(func(job async.Job, err error) {
			ing.Forget(job.HashHex)
			if common.IsFatalForBatch(err) {
				cancel(err)
			}
		}),
	)

	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       args,
		InitialScan: watchInitialScan,
		SkipHidden:  true,
		Debounce:    watchDebounce,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (writing to %s)\n", strings.Join(args, ", "), outDir)

	for paths != nil || errs != nil {
		select {
		case p, ok := <-paths:
			if !ok {
				paths = nil
				continue
			}
			if within(outDir, p) {
				continue
			}
			r, err := ing.IngestPath(ctx, p)
			if err != nil {
				logger.Warn("watch.ingest.failed", "path", p, "error", err)
				continue
			}
			if r.Deduplicated {
				continue
			}
			job := async.Job{Path: r.SourcePath, HashHex: r.HashHex, TraceID: uuid.NewString()}
			if err := q.Enqueue(ctx, job); err != nil {
				logger.Warn("watch.enqueue.failed", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch.watcher.error", "error", err)
		}
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Render.Timeout.Duration*3)
	defer done()
	q.Shutdown(shutdownCtx)

	if cause := context.Cause(ctx); cause != nil && common.IsFatalForBatch(cause) {
		return cause
	}
	return nil
}

// bundleHandler runs one file through the pipeline as a batch of one and
// writes its bundle.
func bundleHandler(a *app, outDir string, cmd *cobra.Command) async.HandlerFunc {
	return func(ctx context.Context, job async.Job) error {
		docs, loadErrs := pipeline.LoadDocuments([]string{job.Path})
		if len(loadErrs) > 0 {
			return loadErrs[0]
		}
		res, err := a.batch.Run(ctx, docs)
		if err != nil {
			return err
		}
		if _, err := pipeline.WriteOutputs(outDir, res); err != nil {
			return err
		}
		for _, it := range res.Items {
			if it.Err != nil {
				return it.Err
			}
			cmd.Printf("OK      %s -> %s\n", it.Document, it.Result.InvoiceID)
		}
		return nil
	}
}

func within(dir, path string) bool {
	d, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	p, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(d, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
