package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/invoice-bundler/internal/artifact"
	"github.com/joseph-ayodele/invoice-bundler/internal/common"
	"github.com/joseph-ayodele/invoice-bundler/internal/corrections"
	"github.com/joseph-ayodele/invoice-bundler/internal/extract"
	"github.com/joseph-ayodele/invoice-bundler/internal/invoice"
	"github.com/joseph-ayodele/invoice-bundler/internal/pipeline"
	"github.com/joseph-ayodele/invoice-bundler/internal/sequence"
	"github.com/joseph-ayodele/invoice-bundler/internal/textextract"
	"github.com/joseph-ayodele/invoice-bundler/internal/waiver"
)

// appOptions carries per-invocation overrides of the loaded config.
type appOptions struct {
	Corrections string // path to a corrections JSON file
	Variant     string // invoice description variant
	Combine     bool
}

// app is the wired component graph for one command run.
type app struct {
	cfg       *common.Config
	logger    *slog.Logger
	allocator *sequence.Allocator
	processor *pipeline.Processor
	batch     *pipeline.Batch
}

func newApp(ctx context.Context, c *common.Config, opts appOptions, log *slog.Logger) (*app, error) {
	if log == nil {
		log = slog.Default()
	}

	text, err := textextract.NewSource(ctx, textextract.Config{
		Engine:    c.Text.Engine,
		Pdftotext: c.Text.Pdftotext,
	}, log)
	if err != nil {
		return nil, common.WrapError(err, "text source")
	}

	ext, err := newExtractor(c, log)
	if err != nil {
		return nil, err
	}

	var set corrections.Set
	if opts.Corrections != "" {
		set, err = corrections.Load(opts.Corrections, log)
		if err != nil {
			return nil, err
		}
	}

	variant := c.Business.Variant
	if opts.Variant != "" {
		variant = opts.Variant
	}
	switch invoice.Variant(variant) {
	case invoice.VariantStandard, invoice.VariantOutOfScope:
	default:
		return nil, fmt.Errorf("unknown invoice variant %q", variant)
	}
	renderer := invoice.NewRenderer(invoice.Config{
		BusinessName:    c.Business.Name,
		Address:         c.Business.Address,
		BillTo:          c.Business.BillTo,
		DefaultCustomer: c.Business.DefaultCustomer,
		Signer:          c.Business.Signer,
		Variant:         invoice.Variant(variant),
	}, log)

	var tmpl *waiver.Template
	var filler *waiver.Filler
	if c.Waiver.TemplatePath != "" {
		t, err := waiver.LoadTemplate(c.Waiver.TemplatePath, c.Waiver.Version)
		if err != nil {
			return nil, err
		}
		tmpl = &t
		conv := waiver.NewSofficeConverter(c.Render.Soffice, c.Render.Timeout.Duration, log)
		filler = waiver.NewFiller(conv, log)
	} else {
		log.Warn("app.waiver.disabled", "reason", "no waiver template configured")
	}

	store, err := sequence.Open(ctx, sequence.Config{
		Backend: c.Counter.Backend,
		Path:    c.Counter.Path,
		DSN:     c.Counter.DSN,
	}, log)
	if err != nil {
		return nil, common.AllocatorUnavailable("open counter", err)
	}
	alloc := sequence.NewAllocator(store, log)

	merger := artifact.NewMerger(log)
	proc := &pipeline.Processor{
		Text:        text,
		Extractor:   ext,
		Corrections: set,
		Allocator:   alloc,
		Invoices:    renderer,
		Template:    tmpl,
		Merger:      merger,
		Logger:      log,
	}
	if filler != nil {
		proc.Waivers = filler
	}

	return &app{
		cfg:       c,
		logger:    log,
		allocator: alloc,
		processor: proc,
		batch: &pipeline.Batch{
			Processor: proc,
			Merger:    merger,
			Combine:   opts.Combine,
			Logger:    log,
		},
	}, nil
}

func newExtractor(c *common.Config, log *slog.Logger) (*extract.Extractor, error) {
	ext, err := extract.New(extract.Config{
		Cities:        c.Extract.Cities,
		CraftCode:     c.Extract.CraftCode,
		CustomerMatch: c.Extract.CustomerMatch,
		CustomerLabel: c.Extract.CustomerLabel,
		Signature:     c.Waiver.Signature,
	}, log)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfig, "build extractor", errors.Join(common.ErrInvalidInput, err))
	}
	return ext, nil
}

func (a *app) Close() error {
	if a == nil || a.allocator == nil {
		return nil
	}
	return a.allocator.Close()
}
