package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-bundler/constants"
	"github.com/joseph-ayodele/invoice-bundler/internal/artifact"
	"github.com/joseph-ayodele/invoice-bundler/internal/common"
	"github.com/joseph-ayodele/invoice-bundler/internal/corrections"
	"github.com/joseph-ayodele/invoice-bundler/internal/entity"
	"github.com/joseph-ayodele/invoice-bundler/internal/textextract"
	"github.com/joseph-ayodele/invoice-bundler/internal/waiver"
)

type FieldExtractor interface {
	Extract(pages []string) entity.BillingRecord
}

type Allocator interface {
	Next(ctx context.Context) (entity.InvoiceID, error)
}

type InvoiceRenderer interface {
	Render(rec entity.BillingRecord, id entity.InvoiceID, issued time.Time) (artifact.Artifact, error)
}

type WaiverFiller interface {
	Fill(ctx context.Context, tmpl waiver.Template, rec entity.BillingRecord) (artifact.Artifact, error)
}

type Merger interface {
	Merge(ctx context.Context, parts ...artifact.Artifact) (artifact.Bundle, error)
}

// Document is one purchase order submitted for processing.
type Document struct {
	Name string
	Data []byte
}

// Result is the outcome of processing one document.
type Result struct {
	Document  string
	InvoiceID entity.InvoiceID
	Record    entity.BillingRecord
	Corrected []string
	Bundle    artifact.Bundle
}

// Processor runs extract -> correct -> allocate -> invoice -> waiver -> merge
// for a single document.
type Processor struct {
	Text        textextract.Source
	Extractor   FieldExtractor
	Corrections corrections.Set
	Allocator   Allocator
	Invoices    InvoiceRenderer
	Waivers     WaiverFiller
	Template    *waiver.Template // nil disables the waiver
	Merger      Merger
	Logger      *slog.Logger

	now func() time.Time
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Processor) clock() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}

// Process turns doc into its bundle. A number is allocated only after the
// document parsed and its amount is billable; once allocated it stays
// consumed whatever happens next.
func (p *Processor) Process(ctx context.Context, doc Document) (Result, error) {
	log := p.logger().With("file", doc.Name, "run_id", common.RunIDFromContext(ctx))
	ctx = common.WithDocument(ctx, doc.Name)
	res := Result{Document: doc.Name}

	pages, err := textextract.Read(ctx, p.Text, doc.Data)
	if err != nil {
		log.Error("pipeline.extract.failed", "error", err)
		return res, stageErr(doc.Name, constants.StageExtract, err)
	}
	rec := p.Extractor.Extract(pages)

	if o, ok := p.Corrections.For(doc.Name); ok {
		corrected, fields, err := o.Apply(rec)
		if err != nil {
			log.Error("pipeline.correct.failed", "error", err)
			return res, stageErr(doc.Name, constants.StageCorrect, err)
		}
		rec = corrected
		res.Corrected = fields
		log.Info("pipeline.correct.ok", "fields", fields)
	}
	res.Record = rec

	if err := entity.CheckAmount(rec.Amount); err != nil {
		stage := constants.StageExtract
		if res.Corrected != nil {
			stage = constants.StageCorrect
		}
		log.Error("pipeline.amount.invalid", "amount", *rec.Amount, "error", err)
		return res, stageErr(doc.Name, stage, common.MalformedInput("amount is not a number", err))
	}

	id, err := p.Allocator.Next(ctx)
	if err != nil {
		log.Error("pipeline.allocate.failed", "error", err)
		return res, stageErr(doc.Name, constants.StageAllocate, err)
	}
	res.InvoiceID = id
	log = log.With("invoice_id", id)

	inv, err := p.Invoices.Render(rec, id, p.clock())
	if err != nil {
		log.Error("pipeline.invoice.failed", "error", err)
		return res, stageErr(doc.Name, constants.StageInvoice, err)
	}

	var wv *artifact.Artifact
	if p.Template != nil && p.Waivers != nil {
		a, err := p.Waivers.Fill(ctx, *p.Template, rec)
		if err != nil {
			log.Error("pipeline.waiver.failed", "error", err)
			return res, stageErr(doc.Name, constants.StageWaiver, err)
		}
		wv = &a
	}

	order := artifact.Artifact{Name: doc.Name, Kind: artifact.KindOrder, Data: doc.Data}
	bundle, err := p.Merger.Merge(ctx, artifact.BusinessOrder(&inv, &order, wv)...)
	if err != nil {
		log.Error("pipeline.merge.failed", "error", err)
		return res, stageErr(doc.Name, constants.StageMerge, err)
	}
	res.Bundle = bundle

	log.Info("pipeline.process.ok", "pages", bundle.Pages, "waiver", wv != nil)
	return res, nil
}
