package invoice

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/joseph-ayodele/invoice-bundler/constants"
	"github.com/joseph-ayodele/invoice-bundler/internal/artifact"
	"github.com/joseph-ayodele/invoice-bundler/internal/common"
	"github.com/joseph-ayodele/invoice-bundler/internal/entity"
)

// Variant selects the default description used when none was extracted.
type Variant string

const (
	VariantStandard   Variant = "standard"
	VariantOutOfScope Variant = "out_of_scope"
)

func (v Variant) defaultDescription() string {
	if v == VariantOutOfScope {
		return constants.DescriptionOutOfScope
	}
	return constants.DescriptionStandard
}

type Config struct {
	BusinessName    string
	Address         []string
	BillTo          []string
	DefaultCustomer string
	Signer          string
	Variant         Variant
}

// Renderer lays out an invoice. Line items flow onto continuation pages
// when they do not fit; the total and signature always stay together.
// Output bytes depend only on the record, identifier, issue date and config.
type Renderer struct {
	cfg    Config
	logger *slog.Logger
}

func NewRenderer(cfg Config, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Variant == "" {
		cfg.Variant = VariantStandard
	}
	return &Renderer{cfg: cfg, logger: logger}
}

// Line is one table row of the invoice.
type Line struct {
	PONumber    string
	Description string
	Amount      string
}

// Lines resolves display defaults and splits a multi-line description into
// one row per segment. PO number and amount appear on the first row only.
func (r *Renderer) Lines(rec entity.BillingRecord) []Line {
	segments := splitSegments(entity.StrOr(rec.Description, ""))
	if len(segments) == 0 {
		segments = []string{r.cfg.Variant.defaultDescription()}
	}
	lines := make([]Line, len(segments))
	for i, s := range segments {
		lines[i].Description = s
	}
	lines[0].PONumber = entity.StrOr(rec.PONumber, constants.DefaultPONumber)
	lines[0].Amount = entity.DisplayAmount(rec.Amount)
	return lines
}

const (
	bottomMargin = 20.0
	rowH         = 7.0
	headerRowH   = 8.0
	// total row, thank-you line and signature block
	closingH = 8 + 14 + 8 + 16 + 8 + 4
)

// Render produces the invoice artifact for rec. A present but unparseable
// amount is refused rather than billed as zero.
func (r *Renderer) Render(rec entity.BillingRecord, id entity.InvoiceID, issued time.Time) (artifact.Artifact, error) {
	if err := entity.CheckAmount(rec.Amount); err != nil {
		r.logger.Warn("invoice.amount.unparseable", "invoice_id", id, "amount", *rec.Amount, "error", err)
		return artifact.Artifact{}, common.MalformedInput("invoice amount", err)
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCreationDate(issued)
	doc.SetModificationDate(issued)
	doc.SetCatalogSort(true)
	doc.SetTitle(string(id), true)
	doc.SetAuthor(r.cfg.BusinessName, true)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(false, bottomMargin)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	pageW, pageH := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	width := pageW - left - right

	// header
	doc.SetFont("Helvetica", "B", 22)
	doc.CellFormat(width, 10, "INVOICE", "", 1, "R", false, 0, "")
	doc.Ln(2)

	top := doc.GetY()
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(width/2, 6, tr(r.cfg.BusinessName), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	for _, l := range r.cfg.Address {
		doc.CellFormat(width/2, 5, tr(l), "", 1, "L", false, 0, "")
	}
	issuerBottom := doc.GetY()

	doc.SetXY(left+width/2, top)
	meta := []string{
		"Invoice #: " + string(id),
		"Invoice Date: " + issued.Format(constants.DateLayout),
		"Terms: " + rec.TermsCode,
	}
	for _, m := range meta {
		doc.SetX(left + width/2)
		doc.CellFormat(width/2, 6, tr(m), "", 1, "R", false, 0, "")
	}
	doc.SetY(max(issuerBottom, doc.GetY()) + 8)

	// bill to
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(width, 6, "Bill To", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(width, 5, tr("Customer: "+entity.StrOr(rec.Customer, r.cfg.DefaultCustomer)), "", 1, "L", false, 0, "")
	for _, l := range r.cfg.BillTo {
		doc.CellFormat(width, 5, tr(l), "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	if rec.Job != nil && rec.Lot != nil {
		doc.CellFormat(width, 5, tr(fmt.Sprintf("Job: %s    Lot: %s", *rec.Job, *rec.Lot)), "", 1, "L", false, 0, "")
	}
	if rec.JobLocation != "" && rec.JobLocation != constants.DefaultJobLocation {
		doc.MultiCell(width, 5, tr("Job Location: "+rec.JobLocation), "", "L", false)
	}
	doc.Ln(4)

	// line items
	colPO, colAmt := 45.0, 35.0
	colDesc := width - colPO - colAmt
	limit := pageH - bottomMargin
	tableHeader := func() {
		doc.SetFont("Helvetica", "B", 10)
		doc.SetFillColor(230, 230, 230)
		doc.CellFormat(colPO, headerRowH, "PO#", "1", 0, "L", true, 0, "")
		doc.CellFormat(colDesc, headerRowH, "Description", "1", 0, "L", true, 0, "")
		doc.CellFormat(colAmt, headerRowH, "Amount", "1", 1, "R", true, 0, "")
		doc.SetFont("Helvetica", "", 10)
	}
	continuation := func() {
		doc.AddPage()
		doc.SetFont("Helvetica", "B", 12)
		doc.CellFormat(width, 8, tr(string(id)+" (continued)"), "", 1, "R", false, 0, "")
		doc.Ln(4)
	}
	tableHeader()

	lines := r.Lines(rec)
	for _, l := range lines {
		if doc.GetY()+rowH > limit {
			continuation()
			tableHeader()
		}
		doc.CellFormat(colPO, rowH, tr(l.PONumber), "1", 0, "L", false, 0, "")
		doc.CellFormat(colDesc, rowH, tr(l.Description), "1", 0, "L", false, 0, "")
		doc.CellFormat(colAmt, rowH, tr(l.Amount), "1", 1, "R", false, 0, "")
	}
	if doc.GetY()+closingH > limit {
		continuation()
	}
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(colPO+colDesc, 8, "Total", "1", 0, "R", false, 0, "")
	doc.CellFormat(colAmt, 8, tr(lines[0].Amount), "1", 1, "R", false, 0, "")

	doc.Ln(14)
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(width, 8, "THANK YOU FOR YOUR BUSINESS!", "", 1, "C", false, 0, "")

	doc.Ln(16)
	doc.SetFont("Courier", "I", 16)
	doc.CellFormat(width, 8, tr(r.cfg.Signer), "", 1, "R", false, 0, "")
	doc.SetFont("Helvetica", "", 8)
	doc.CellFormat(width, 4, "Authorized Signature", "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		r.logger.Error("invoice.render.failed", "invoice_id", id, "error", err)
		return artifact.Artifact{}, common.RenderingFailure("invoice layout", err)
	}

	r.logger.Debug("invoice.render.ok", "invoice_id", id, "rows", len(lines), "pages", doc.PageCount(), "bytes", buf.Len())
	return artifact.Artifact{
		Name:  string(id),
		Kind:  artifact.KindInvoice,
		Data:  buf.Bytes(),
		Pages: doc.PageCount(),
	}, nil
}

func splitSegments(s string) []string {
	var out []string
	for _, seg := range strings.Split(s, "\n") {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
