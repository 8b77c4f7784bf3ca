package waiver

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/invoice-bundler/constants"
	"github.com/joseph-ayodele/invoice-bundler/internal/artifact"
	"github.com/joseph-ayodele/invoice-bundler/internal/common"
	"github.com/joseph-ayodele/invoice-bundler/internal/entity"
	"github.com/joseph-ayodele/invoice-bundler/internal/pdfdoc"
)

// Filler produces the waiver page for a billing record.
type Filler struct {
	conv   Converter
	logger *slog.Logger
}

func NewFiller(conv Converter, logger *slog.Logger) *Filler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filler{conv: conv, logger: logger}
}

// Values maps each placeholder to its display value for rec.
func Values(rec entity.BillingRecord) map[string]string {
	date := rec.ThroughDate.Format(constants.DateLayout)
	return map[string]string{
		TokenJobLocation:   rec.JobLocation,
		TokenThroughDate:   date,
		TokenAmount:        entity.DisplayAmount(rec.Amount),
		TokenSignature:     rec.Signature,
		TokenSignatureDate: date,
	}
}

// Fill substitutes rec into tmpl and converts the result to PDF.
func (f *Filler) Fill(ctx context.Context, tmpl Template, rec entity.BillingRecord) (artifact.Artifact, error) {
	docx, unfilled, err := Substitute(tmpl.Data, Values(rec))
	if err != nil {
		return artifact.Artifact{}, common.RenderingFailure("fill template "+tmpl.Name, err)
	}
	if len(unfilled) > 0 {
		f.logger.Warn("waiver.tokens_unfilled",
			"template", tmpl.Name,
			"version", tmpl.Version,
			"tokens", unfilled,
		)
	}

	pdf, err := f.conv.Convert(ctx, docx)
	if err != nil {
		f.logger.Error("waiver.convert.failed", "template", tmpl.Name, "error", err)
		return artifact.Artifact{}, err
	}
	pages, err := pdfdoc.PageCount(pdf)
	if err != nil {
		return artifact.Artifact{}, common.RenderingFailure("converted waiver is not a pdf", err)
	}

	f.logger.Debug("waiver.fill.ok", "template", tmpl.Name, "version", tmpl.Version, "pages", pages)
	return artifact.Artifact{Name: tmpl.Name, Kind: artifact.KindWaiver, Data: pdf, Pages: pages}, nil
}
