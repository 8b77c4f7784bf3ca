package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-bundler/constants"
	"github.com/joseph-ayodele/invoice-bundler/internal/artifact"
	"github.com/joseph-ayodele/invoice-bundler/internal/common"
	"github.com/joseph-ayodele/invoice-bundler/internal/corrections"
	"github.com/joseph-ayodele/invoice-bundler/internal/entity"
	"github.com/joseph-ayodele/invoice-bundler/internal/extract"
	"github.com/joseph-ayodele/invoice-bundler/internal/sequence"
	"github.com/joseph-ayodele/invoice-bundler/internal/testutil"
	"github.com/joseph-ayodele/invoice-bundler/internal/textextract"
	"github.com/joseph-ayodele/invoice-bundler/internal/waiver"
)

const poText = "Granville Homes Inc.\nPurchase Order ABCD-1-123456\nProject: Oak St\nLot: 14\n" +
	"Craft: 4440 - Final Clean\nTotal: $1,250.00\n"

// fakeText returns the same purchase order text for any payload.
type fakeText struct{}

func (fakeText) Pages(context.Context, []byte) (textextract.PageText, error) {
	return textextract.PageText{poText}, nil
}

type fakeInvoices struct {
	t    *testing.T
	seen []entity.BillingRecord
}

func (f *fakeInvoices) Render(rec entity.BillingRecord, id entity.InvoiceID, _ time.Time) (artifact.Artifact, error) {
	f.seen = append(f.seen, rec)
	return artifact.Artifact{Name: string(id), Kind: artifact.KindInvoice, Data: testutil.PDF(f.t, string(id)), Pages: 1}, nil
}

type fakeWaivers struct {
	t   *testing.T
	err error
}

func (f *fakeWaivers) Fill(_ context.Context, tmpl waiver.Template, _ entity.BillingRecord) (artifact.Artifact, error) {
	if f.err != nil {
		return artifact.Artifact{}, f.err
	}
	return artifact.Artifact{Name: tmpl.Name, Kind: artifact.KindWaiver, Data: testutil.PDF(f.t, "waiver"), Pages: 1}, nil
}

// flakyAllocator fails from the given call on.
type flakyAllocator struct {
	inner  *sequence.Allocator
	failAt int
	calls  int
}

func (f *flakyAllocator) Next(ctx context.Context) (entity.InvoiceID, error) {
	f.calls++
	if f.failAt > 0 && f.calls >= f.failAt {
		return "", common.AllocatorUnavailable("counter", errors.New("disk full"))
	}
	return f.inner.Next(ctx)
}

type fixture struct {
	proc     *Processor
	alloc    *sequence.Allocator
	invoices *fakeInvoices
	waivers  *fakeWaivers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ex, err := extract.New(extract.Config{
		Cities: []string{"Fresno"}, CraftCode: "4440",
		CustomerMatch: "Granville Homes Inc.", CustomerLabel: "Granville Homes",
	}, nil)
	require.NoError(t, err)

	f := &fixture{
		alloc:    sequence.NewAllocator(sequence.NewMemoryStore(), nil),
		invoices: &fakeInvoices{t: t},
		waivers:  &fakeWaivers{t: t},
	}
	f.proc = &Processor{
		Text:      fakeText{},
		Extractor: ex,
		Allocator: f.alloc,
		Invoices:  f.invoices,
		Waivers:   f.waivers,
		Template:  &waiver.Template{Name: "waiver", Version: "1"},
		Merger:    artifact.NewMerger(nil),
		now:       func() time.Time { return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) },
	}
	return f
}

func poDoc(t *testing.T, name string, pages int) Document {
	texts := make([]string, pages)
	for i := range texts {
		texts[i] = name
	}
	return Document{Name: name, Data: testutil.PDF(t, texts...)}
}

func TestProcess_FullBundle(t *testing.T) {
	f := newFixture(t)

	res, err := f.proc.Process(context.Background(), poDoc(t, "po.pdf", 2))
	require.NoError(t, err)

	assert.Equal(t, entity.InvoiceID("INV-1001"), res.InvoiceID)
	assert.Equal(t, "ABCD-1-123456", *res.Record.PONumber)
	assert.Equal(t, 4, res.Bundle.Pages)
	require.Len(t, res.Bundle.Sections, 3)
	assert.Equal(t, artifact.KindInvoice, res.Bundle.Sections[0].Kind)
	assert.Equal(t, artifact.Section{Name: "po.pdf", Kind: artifact.KindOrder, FirstPage: 2, Pages: 2}, res.Bundle.Sections[1])
	assert.Equal(t, artifact.KindWaiver, res.Bundle.Sections[2].Kind)
}

func TestProcess_BundlePageOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := Document{Name: "po.pdf", Data: testutil.PDF(t, "order page one", "order page two")}

	res, err := f.proc.Process(ctx, doc)
	require.NoError(t, err)

	src, err := textextract.NewEinoSource(ctx, nil)
	require.NoError(t, err)
	pages, err := src.Pages(ctx, res.Bundle.Data)
	require.NoError(t, err)
	require.Len(t, pages, 4)
	assert.Contains(t, pages[0], "INV-1001")
	assert.Contains(t, pages[1], "order page one")
	assert.Contains(t, pages[2], "order page two")
	assert.Contains(t, pages[3], "waiver")
}

// staticExtractor returns rec for any text.
type staticExtractor struct{ rec entity.BillingRecord }

func (s staticExtractor) Extract([]string) entity.BillingRecord { return s.rec }

func TestProcess_UnbillableAmountDoesNotConsumeNumber(t *testing.T) {
	ctx := context.Background()
	rec := entity.NewBillingRecord(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	rec.Amount = entity.Ptr("1,250.00.")

	f := newFixture(t)
	f.proc.Extractor = staticExtractor{rec: rec}

	_, err := f.proc.Process(ctx, poDoc(t, "po.pdf", 1))
	require.Error(t, err)
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, constants.StageExtract, se.Stage)
	assert.ErrorIs(t, err, common.ErrMalformedInput)
	assert.Empty(t, f.invoices.seen, "nothing rendered")

	next, err := f.alloc.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceID("INV-1001"), next)
}

func TestProcess_NoWaiverTemplate(t *testing.T) {
	f := newFixture(t)
	f.proc.Template = nil

	res, err := f.proc.Process(context.Background(), poDoc(t, "po.pdf", 1))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Bundle.Pages)
	assert.Len(t, res.Bundle.Sections, 2)
}

func TestProcess_MalformedInputDoesNotConsumeNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.proc.Process(ctx, Document{Name: "broken.pdf", Data: []byte("not a pdf")})
	require.Error(t, err)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, constants.StageExtract, se.Stage)
	assert.Equal(t, "broken.pdf", se.Document)
	assert.ErrorIs(t, err, common.ErrMalformedInput)

	next, err := f.alloc.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceID("INV-1001"), next)
}

func TestProcess_WaiverFailureKeepsAllocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.waivers.err = common.RenderingTimeout("soffice exceeded 60s", context.DeadlineExceeded)

	res, err := f.proc.Process(ctx, poDoc(t, "po.pdf", 1))
	require.Error(t, err)
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, constants.StageWaiver, se.Stage)
	assert.ErrorIs(t, err, common.ErrRenderingTimeout)
	assert.Equal(t, entity.InvoiceID("INV-1001"), res.InvoiceID)

	f.waivers.err = nil
	res, err = f.proc.Process(ctx, poDoc(t, "po2.pdf", 1))
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceID("INV-1002"), res.InvoiceID, "numbers are not rolled back")
}

func TestProcess_AppliesCorrections(t *testing.T) {
	f := newFixture(t)
	f.proc.Corrections = corrections.Set{
		"po.pdf": {Amount: entity.Ptr("2,000"), Description: entity.Ptr("Final Clean\nTouch-up")},
	}

	res, err := f.proc.Process(context.Background(), poDoc(t, "po.pdf", 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"description", "amount"}, res.Corrected)
	require.Len(t, f.invoices.seen, 1)
	assert.Equal(t, "2,000", *f.invoices.seen[0].Amount)
	assert.Equal(t, "ABCD-1-123456", *f.invoices.seen[0].PONumber)
}

func TestBatch_ContinuesPastDocumentErrors(t *testing.T) {
	f := newFixture(t)
	b := &Batch{Processor: f.proc, Merger: artifact.NewMerger(nil), Combine: true}

	docs := []Document{
		poDoc(t, "a.pdf", 1),
		{Name: "bad.pdf", Data: []byte("garbage")},
		poDoc(t, "c.pdf", 2),
	}
	res, err := b.Run(context.Background(), docs)
	require.NoError(t, err)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", res.RunID.String())

	require.Len(t, res.Items, 3)
	assert.Equal(t, constants.DocStatusOK, res.Items[0].Status)
	assert.Equal(t, constants.DocStatusFailed, res.Items[1].Status)
	assert.Equal(t, constants.DocStatusOK, res.Items[2].Status)
	assert.Equal(t, entity.InvoiceID("INV-1001"), res.Items[0].Result.InvoiceID)
	assert.Equal(t, entity.InvoiceID("INV-1002"), res.Items[2].Result.InvoiceID)

	require.NotNil(t, res.Combined)
	// (1+1+1) + (1+2+1)
	assert.Equal(t, 7, res.Combined.Pages)
	assert.Equal(t, "INV-1001", res.Combined.Sections[0].Name)
	assert.Equal(t, "INV-1002", res.Combined.Sections[1].Name)
	assert.Equal(t, 4, res.Combined.Sections[1].FirstPage)

	src, err := textextract.NewEinoSource(context.Background(), nil)
	require.NoError(t, err)
	pages, err := src.Pages(context.Background(), res.Combined.Data)
	require.NoError(t, err)
	want := []string{"INV-1001", "a.pdf", "waiver", "INV-1002", "c.pdf", "c.pdf", "waiver"}
	require.Len(t, pages, len(want))
	for i, w := range want {
		assert.Contains(t, pages[i], w, "combined page %d", i+1)
	}
}

func TestBatch_AllocatorFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.proc.Allocator = &flakyAllocator{inner: f.alloc, failAt: 2}
	b := &Batch{Processor: f.proc, Merger: artifact.NewMerger(nil), Combine: true}

	res, err := b.Run(context.Background(), []Document{
		poDoc(t, "a.pdf", 1), poDoc(t, "b.pdf", 1), poDoc(t, "c.pdf", 1),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAllocatorUnavailable)

	statuses := make([]constants.DocStatus, len(res.Items))
	for i, it := range res.Items {
		statuses[i] = it.Status
	}
	assert.Equal(t, []constants.DocStatus{
		constants.DocStatusOK, constants.DocStatusFailed, constants.DocStatusSkipped,
	}, statuses)
	assert.Nil(t, res.Combined)
}

func TestBatch_NothingSucceeded(t *testing.T) {
	f := newFixture(t)
	b := &Batch{Processor: f.proc, Merger: artifact.NewMerger(nil), Combine: true}
	res, err := b.Run(context.Background(), []Document{{Name: "x.pdf", Data: []byte("x")}})
	require.NoError(t, err)
	assert.Nil(t, res.Combined)
	assert.Len(t, res.Failed(), 1)
}

func TestLoadDocumentsAndWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "po.pdf")
	require.NoError(t, os.WriteFile(good, testutil.PDF(t, "po"), 0o600))

	docs, errs := LoadDocuments([]string{good, filepath.Join(dir, "missing.pdf")})
	require.Len(t, docs, 1)
	require.Len(t, errs, 1)
	assert.Equal(t, "po.pdf", docs[0].Name)
	assert.True(t, strings.Contains(errs[0].Error(), "missing.pdf"))

	f := newFixture(t)
	b := &Batch{Processor: f.proc, Merger: artifact.NewMerger(nil), Combine: true}
	res, err := b.Run(context.Background(), docs)
	require.NoError(t, err)

	out := filepath.Join(dir, "out")
	written, err := WriteOutputs(out, res)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(out, "INV-1001.pdf"),
		filepath.Join(out, constants.CombinedBundleName),
	}, written)
}
