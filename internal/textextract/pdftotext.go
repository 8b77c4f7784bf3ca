package textextract

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-bundler/internal/command"
	"github.com/joseph-ayodele/invoice-bundler/internal/common"
)

// PDFToText shells out to poppler's pdftotext.
type PDFToText struct {
	bin     string
	timeout time.Duration
	runner  command.Runner
	logger  *slog.Logger
}

// DefaultPdftotextTimeout bounds one pdftotext run.
const DefaultPdftotextTimeout = 30 * time.Second

func NewPDFToText(bin string, logger *slog.Logger) *PDFToText {
	if bin == "" {
		bin = "pdftotext"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFToText{bin: bin, timeout: DefaultPdftotextTimeout, runner: command.ExecRunner{}, logger: logger}
}

// WithRunner replaces the command runner (tests).
func (p *PDFToText) WithRunner(r command.Runner) *PDFToText {
	p.runner = r
	return p
}

func (p *PDFToText) Pages(ctx context.Context, data []byte) (PageText, error) {
	f, err := os.CreateTemp("", "po-*.pdf")
	if err != nil {
		return nil, common.TextEngineFailure("create temp pdf", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return nil, common.TextEngineFailure("write temp pdf", err)
	}
	if err := f.Close(); err != nil {
		return nil, common.TextEngineFailure("close temp pdf", err)
	}

	out, err := p.runner.Run(ctx, command.Cmd{
		Name:        p.bin,
		Args:        []string{"-enc", "UTF-8", "-eol", "unix", f.Name(), "-"},
		Timeout:     p.timeout,
		StderrLimit: 512,
	}, p.logger)
	if err != nil {
		var ce *command.Error
		if errors.As(err, &ce) && ce.Exited() {
			// pdftotext ran and could not make sense of the file.
			return nil, err
		}
		return nil, common.TextEngineFailure(p.bin+" did not run", err)
	}
	pages := SplitPages(string(out.Stdout))
	p.logger.Debug("text.pdftotext.ok", "pages", len(pages), "bytes", len(out.Stdout), "duration_ms", out.Duration.Milliseconds())
	return pages, nil
}

// SplitPages splits form-feed separated output into normalized page texts.
// The trailing form feed pdftotext emits after the last page is dropped.
func SplitPages(s string) PageText {
	s = strings.TrimSuffix(s, "\f")
	raw := strings.Split(s, "\f")
	pages := make(PageText, len(raw))
	for i, r := range raw {
		pages[i] = Normalize(r)
	}
	return pages
}
