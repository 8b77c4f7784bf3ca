package invoice

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-bundler/internal/artifact"
	"github.com/joseph-ayodele/invoice-bundler/internal/common"
	"github.com/joseph-ayodele/invoice-bundler/internal/entity"
	"github.com/joseph-ayodele/invoice-bundler/internal/pdfdoc"
	"github.com/joseph-ayodele/invoice-bundler/internal/textextract"
)

var issued = time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		BusinessName:    "I'll Klean It",
		Address:         []string{"PO Box 1", "Fresno, CA 93650"},
		BillTo:          []string{"1396 W Herndon", "Fresno, CA 93711"},
		DefaultCustomer: "Granville Homes",
		Signer:          "Luis Moreno",
	}
}

func fullRecord() entity.BillingRecord {
	rec := entity.NewBillingRecord(issued)
	rec.PONumber = entity.Ptr("ABCD-1-123456")
	rec.Job = entity.Ptr("Oak St")
	rec.Lot = entity.Ptr("14")
	rec.Description = entity.Ptr("Final Clean")
	rec.Amount = entity.Ptr("1,250.00")
	rec.Customer = entity.Ptr("Granville Homes")
	rec.JobLocation = "123 Main St\nFresno, CA"
	return rec
}

func TestLines_Defaults(t *testing.T) {
	rec := entity.NewBillingRecord(issued)

	lines := NewRenderer(testConfig(), nil).Lines(rec)
	assert.Equal(t, []Line{{PONumber: "N/A", Description: "Interior Cleaning", Amount: "$0.00"}}, lines)

	cfg := testConfig()
	cfg.Variant = VariantOutOfScope
	lines = NewRenderer(cfg, nil).Lines(rec)
	assert.Equal(t, "Services rendered outside scope", lines[0].Description)

	assert.Nil(t, rec.PONumber, "defaults never leak into the record")
	assert.Nil(t, rec.Description)
}

func TestLines_DescriptionSegments(t *testing.T) {
	rec := fullRecord()
	rec.Description = entity.Ptr("Final Clean\n\n  Window Wash \nTouch-up")
	rec.Amount = entity.Ptr("$2,000")

	lines := NewRenderer(testConfig(), nil).Lines(rec)
	assert.Equal(t, []Line{
		{PONumber: "ABCD-1-123456", Description: "Final Clean", Amount: "$2,000.00"},
		{Description: "Window Wash"},
		{Description: "Touch-up"},
	}, lines)
}

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer(testConfig(), nil)

	a, err := r.Render(fullRecord(), "INV-1001", issued)
	require.NoError(t, err)
	b, err := r.Render(fullRecord(), "INV-1001", issued)
	require.NoError(t, err)

	assert.Equal(t, a.Data, b.Data)
	assert.Equal(t, artifact.KindInvoice, a.Kind)
	assert.Equal(t, "INV-1001", a.Name)
	assert.Equal(t, 1, a.Pages)

	c, err := r.Render(fullRecord(), "INV-1002", issued)
	require.NoError(t, err)
	assert.NotEqual(t, a.Data, c.Data)
}

func TestRender_ValidSinglePage(t *testing.T) {
	a, err := NewRenderer(testConfig(), nil).Render(entity.NewBillingRecord(issued), "INV-1001", issued)
	require.NoError(t, err)
	require.NoError(t, pdfdoc.Validate(a.Data))
	n, err := pdfdoc.PageCount(a.Data)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRender_Content(t *testing.T) {
	ctx := context.Background()
	a, err := NewRenderer(testConfig(), nil).Render(fullRecord(), "INV-1001", issued)
	require.NoError(t, err)

	src, err := textextract.NewEinoSource(ctx, nil)
	require.NoError(t, err)
	pages, err := src.Pages(ctx, a.Data)
	require.NoError(t, err)
	text := strings.Join(pages, "\n")

	for _, want := range []string{"INVOICE", "INV-1001", "04/15/2026", "NET30", "ABCD-1-123456", "Final Clean", "$1,250.00", "Granville Homes"} {
		assert.Contains(t, text, want)
	}
}

func TestRender_PaginatesLongDescriptions(t *testing.T) {
	ctx := context.Background()
	segments := make([]string, 60)
	for i := range segments {
		segments[i] = fmt.Sprintf("Unit %02d touch-up", i+1)
	}
	rec := fullRecord()
	rec.Description = entity.Ptr(strings.Join(segments, "\n"))

	a, err := NewRenderer(testConfig(), nil).Render(rec, "INV-1001", issued)
	require.NoError(t, err)
	require.NoError(t, pdfdoc.Validate(a.Data))

	n, err := pdfdoc.PageCount(a.Data)
	require.NoError(t, err)
	assert.Greater(t, n, 1)
	assert.Equal(t, n, a.Pages)

	src, err := textextract.NewEinoSource(ctx, nil)
	require.NoError(t, err)
	pages, err := src.Pages(ctx, a.Data)
	require.NoError(t, err)
	require.Len(t, pages, n)

	all := strings.Join(pages, "\n")
	for _, s := range segments {
		assert.Contains(t, all, s, "every row is drawn")
	}
	for _, p := range pages[1:] {
		assert.Contains(t, p, "INV-1001 (continued)")
	}
	assert.Contains(t, pages[1], "Description", "table header repeats")
	last := pages[n-1]
	assert.Contains(t, last, "Total")
	assert.Contains(t, last, "Authorized Signature")
	assert.NotContains(t, pages[0], "Authorized Signature")
}

func TestRender_RejectsUnparseableAmount(t *testing.T) {
	rec := fullRecord()
	rec.Amount = entity.Ptr("1.2.3")

	_, err := NewRenderer(testConfig(), nil).Render(rec, "INV-1001", issued)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedInput)
}
