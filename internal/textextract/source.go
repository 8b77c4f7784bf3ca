package textextract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/invoice-bundler/internal/common"
	"github.com/joseph-ayodele/invoice-bundler/internal/pdfdoc"
)

const (
	EnginePdftotext = "pdftotext"
	EngineEino      = "eino"
)

// PageText is the ordered text of each page of a document.
type PageText []string

// Source turns PDF bytes into per-page text.
type Source interface {
	Pages(ctx context.Context, data []byte) (PageText, error)
}

type Config struct {
	Engine    string // "pdftotext" (default) | "eino"
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
}

// NewSource picks the text engine named in cfg.
func NewSource(ctx context.Context, cfg Config, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Engine {
	case "", EnginePdftotext:
		return NewPDFToText(cfg.Pdftotext, logger), nil
	case EngineEino:
		return NewEinoSource(ctx, logger)
	default:
		return nil, fmt.Errorf("unknown text engine %q", cfg.Engine)
	}
}

// Validate rejects payloads that are not a readable PDF container.
func Validate(data []byte) error {
	if err := pdfdoc.Validate(data); err != nil {
		return common.MalformedInput("not a readable PDF", err)
	}
	return nil
}

// Read validates data and extracts its pages with src. Errors the source
// already classified (an engine that could not run, a cancelled context) pass
// through; anything else means the engine rejected the document.
func Read(ctx context.Context, src Source, data []byte) (PageText, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	pages, err := src.Pages(ctx, data)
	if err == nil {
		return pages, nil
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	return nil, common.MalformedInput("text extraction failed", err)
}
