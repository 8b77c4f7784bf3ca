package waiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/invoice-bundler/internal/command"
	"github.com/joseph-ayodele/invoice-bundler/internal/common"
)

const DefaultTimeout = 60 * time.Second

// Converter turns a filled DOCX into PDF bytes.
type Converter interface {
	Convert(ctx context.Context, docx []byte) ([]byte, error)
}

// SofficeConverter runs LibreOffice headless. Each call gets its own
// temporary directory and a deadline; failures are not retried.
type SofficeConverter struct {
	bin     string
	timeout time.Duration
	runner  command.Runner
	logger  *slog.Logger
}

func NewSofficeConverter(bin string, timeout time.Duration, logger *slog.Logger) *SofficeConverter {
	if bin == "" {
		bin = "soffice"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SofficeConverter{bin: bin, timeout: timeout, runner: command.ExecRunner{}, logger: logger}
}

// WithRunner replaces the command runner (tests).
func (c *SofficeConverter) WithRunner(r command.Runner) *SofficeConverter {
	c.runner = r
	return c
}

func (c *SofficeConverter) Convert(ctx context.Context, docx []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "waiver-*")
	if err != nil {
		return nil, common.RenderingFailure("create work dir", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			c.logger.Warn("waiver.cleanup_failed", "dir", dir, "error", err)
		}
	}()

	in := filepath.Join(dir, "waiver.docx")
	if err := os.WriteFile(in, docx, 0o600); err != nil {
		return nil, common.RenderingFailure("write docx", err)
	}

	log := c.logger
	if doc := common.DocumentFromContext(ctx); doc != "" {
		log = log.With("file", doc)
	}
	// soffice --headless --convert-to pdf --outdir <dir> <dir>/waiver.docx
	_, err = c.runner.Run(ctx, command.Cmd{
		Name:        c.bin,
		Args:        []string{"--headless", "--convert-to", "pdf", "--outdir", dir, in},
		Timeout:     c.timeout,
		StderrLimit: 1024,
	}, log)
	if errors.Is(err, command.ErrTimeout) {
		return nil, common.RenderingTimeout(fmt.Sprintf("%s exceeded %s", c.bin, c.timeout), err)
	}
	if err != nil {
		detail := c.bin + " failed"
		var ce *command.Error
		if errors.As(err, &ce) && ce.Stderr != "" {
			detail = ce.Stderr
		}
		return nil, common.RenderingFailure(detail, err)
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "waiver.pdf"))
	if err != nil {
		return nil, common.RenderingFailure(c.bin+" produced no pdf", err)
	}
	return pdf, nil
}
