package textextract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document/parser"
)

// EinoSource extracts page text in-process with the eino PDF parser, for
// hosts without poppler installed.
type EinoSource struct {
	p      parser.Parser
	logger *slog.Logger
}

func NewEinoSource(ctx context.Context, logger *slog.Logger) (*EinoSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, fmt.Errorf("init pdf parser: %w", err)
	}
	return &EinoSource{p: p, logger: logger}, nil
}

func (e *EinoSource) Pages(ctx context.Context, data []byte) (PageText, error) {
	docs, err := e.p.Parse(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	pages := make(PageText, 0, len(docs))
	for _, d := range docs {
		pages = append(pages, Normalize(d.Content))
	}
	e.logger.Debug("text.eino.ok", "pages", len(pages))
	return pages, nil
}
