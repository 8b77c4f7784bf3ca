package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-bundler/internal/common"
)

var version = "dev"

const skipConfig = "skip-config"

var (
	cfgFile   string
	verbose   bool
	logFormat string

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "invoice-bundler",
	Short: "Turn purchase orders into billing bundles",
	Long: `invoice-bundler reads purchase-order PDFs, extracts the billing fields,
assigns each one the next invoice number, and writes a bundle of
invoice, purchase order and (optionally) lien waiver per order.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	l, err := newLogger(cmd.ErrOrStderr(), verbose, logFormat)
	if err != nil {
		return err
	}
	logger = l
	slog.SetDefault(logger)

	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}
	c, err := common.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	logger.Debug("config.loaded", "path", cfgFile, "counter_backend", cfg.Counter.Backend, "text_engine", cfg.Text.Engine)
	return nil
}

func newLogger(w io.Writer, debug bool, format string) (*slog.Logger, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}
