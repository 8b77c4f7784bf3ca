package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-bundler/constants"
	"github.com/joseph-ayodele/invoice-bundler/internal/export"
	"github.com/joseph-ayodele/invoice-bundler/internal/ingest"
	"github.com/joseph-ayodele/invoice-bundler/internal/pipeline"
)

var (
	genOut         string
	genCorrections string
	genNoCombined  bool
	genLedger      bool
	genVariant     string
)

var generateCmd = &cobra.Command{
	Use:   "generate <po.pdf|dir>...",
	Short: "Generate invoice bundles for purchase orders",
	Long: `Processes each purchase order in the order given. Directories are scanned
recursively in lexical order. Every order gets the next invoice number and a
bundle <INV-N>.pdf; successful bundles are also concatenated into
Combined_Invoices.pdf unless --no-combined is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "output directory (default from config)")
	generateCmd.Flags().StringVar(&genCorrections, "corrections", "", "JSON file with per-file field corrections")
	generateCmd.Flags().BoolVar(&genNoCombined, "no-combined", false, "skip the combined bundle")
	generateCmd.Flags().BoolVar(&genLedger, "ledger", false, "also write an XLSX ledger of the run")
	generateCmd.Flags().StringVar(&genVariant, "variant", "", "invoice variant: standard or out_of_scope")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	paths, err := collectInputs(ctx, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no purchase-order PDFs found")
	}

	a, err := newApp(ctx, cfg, appOptions{
		Corrections: genCorrections,
		Variant:     genVariant,
		Combine:     cfg.Output.Combined && !genNoCombined,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("app.close.failed", "error", err)
		}
	}()

	docs, loadErrs := pipeline.LoadDocuments(paths)
	for _, e := range loadErrs {
		cmd.PrintErrf("FAILED  %v\n", e)
	}

	res, runErr := a.batch.Run(ctx, docs)

	outDir := cfg.Output.Dir
	if genOut != "" {
		outDir = genOut
	}
	written, writeErr := pipeline.WriteOutputs(outDir, res)

	if genLedger || cfg.Output.Ledger {
		p, err := writeLedger(outDir, res)
		if err != nil {
			writeErr = errors.Join(writeErr, err)
		} else {
			written = append(written, p)
		}
	}

	printSummary(cmd, res, written)

	if runErr != nil {
		return runErr
	}
	if writeErr != nil {
		return writeErr
	}
	failed := len(res.Failed()) + len(loadErrs)
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(paths))
	}
	return nil
}

// collectInputs expands directories and drops files whose content was already
// submitted in this run.
func collectInputs(ctx context.Context, args []string) ([]string, error) {
	ing := ingest.NewFSIngestor(logger)
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			results, stats, err := ing.IngestDirectory(ctx, arg, true)
			if err != nil {
				return nil, err
			}
			logger.Info("generate.scan", "root", arg, "matched", stats.Matched, "deduplicated", stats.Deduplicated, "failed", stats.Failed)
			paths = append(paths, ingest.Accepted(results)...)
			continue
		}
		r, err := ing.IngestPath(ctx, arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		if !r.Deduplicated {
			paths = append(paths, r.SourcePath)
		}
	}
	return paths, nil
}

func writeLedger(dir string, res pipeline.BatchResult) (string, error) {
	data, err := export.NewService(logger).LedgerXLSX(res)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(dir, constants.LedgerName)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write ledger: %w", err)
	}
	return p, nil
}

func printSummary(cmd *cobra.Command, res pipeline.BatchResult, written []string) {
	for _, it := range res.Items {
		switch it.Status {
		case constants.DocStatusOK:
			cmd.Printf("OK      %s -> %s (%d pages, %s)\n",
				it.Document, it.Result.InvoiceID, it.Result.Bundle.Pages,
				humanize.Bytes(uint64(len(it.Result.Bundle.Data))))
		case constants.DocStatusFailed:
			cmd.Printf("FAILED  %s: %v\n", it.Document, it.Err)
		default:
			cmd.Printf("%-7s %s\n", it.Status, it.Document)
		}
	}
	if res.Combined != nil {
		cmd.Printf("Combined bundle: %d pages\n", res.Combined.Pages)
	}
	for _, p := range written {
		cmd.Printf("wrote %s\n", p)
	}
	cmd.Printf("%d ok, %d failed\n", len(res.Succeeded()), len(res.Failed()))
}
