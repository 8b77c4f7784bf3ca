package cli

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-bundler/internal/sequence"
)

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Inspect the invoice counter",
}

var counterShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the next invoice number without consuming it",
	Args:  cobra.NoArgs,
	RunE:  runCounterShow,
}

func init() {
	counterCmd.AddCommand(counterShowCmd)
	rootCmd.AddCommand(counterCmd)
}

func runCounterShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := sequence.Open(ctx, sequence.Config{
		Backend: cfg.Counter.Backend,
		Path:    cfg.Counter.Path,
		DSN:     cfg.Counter.DSN,
	}, logger)
	if err != nil {
		return err
	}
	alloc := sequence.NewAllocator(store, logger)
	defer func() {
		if err := alloc.Close(); err != nil {
			logger.Warn("counter.close.failed", "error", err)
		}
	}()

	id, err := alloc.Peek(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("next invoice: %s (backend %s)\n", id, cfg.Counter.Backend)
	return nil
}
