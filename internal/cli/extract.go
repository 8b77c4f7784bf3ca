package cli

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-bundler/internal/corrections"
	"github.com/joseph-ayodele/invoice-bundler/internal/textextract"
)

var extractCorrections string

var extractCmd = &cobra.Command{
	Use:   "extract <po.pdf>",
	Short: "Print the billing fields extracted from a purchase order",
	Long: `Reads one purchase order and prints the extracted billing record as JSON,
with corrections applied when --corrections is given. No invoice number is
allocated.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractCorrections, "corrections", "", "JSON file with per-file field corrections")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	src, err := textextract.NewSource(ctx, textextract.Config{
		Engine:    cfg.Text.Engine,
		Pdftotext: cfg.Text.Pdftotext,
	}, logger)
	if err != nil {
		return err
	}
	pages, err := textextract.Read(ctx, src, data)
	if err != nil {
		return err
	}
	ext, err := newExtractor(cfg, logger)
	if err != nil {
		return err
	}
	rec := ext.Extract(pages)

	if extractCorrections != "" {
		set, err := corrections.Load(extractCorrections, logger)
		if err != nil {
			return err
		}
		if o, ok := set.For(filepath.Base(path)); ok {
			if rec, _, err = o.Apply(rec); err != nil {
				return err
			}
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
