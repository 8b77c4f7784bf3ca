package extract

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-bundler/internal/entity"
)

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(Config{
		Cities:        []string{"Fresno", "Clovis"},
		CraftCode:     "4440",
		CustomerMatch: "Granville Homes Inc.",
		CustomerLabel: "Granville Homes",
	}, nil)
	require.NoError(t, err)
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestExtract_EndToEnd(t *testing.T) {
	e := newTestExtractor(t)
	page := "Granville Homes Inc.\n" +
		"Purchase Order ABCD-1-123456\n" +
		"Project: Oak St\nLot: 14\n" +
		"Craft: 4440 - Final Clean\n" +
		"Total: $1,250.00\n"

	got := e.Extract([]string{page})

	want := entity.NewBillingRecord(fixedNow)
	want.PONumber = entity.Ptr("ABCD-1-123456")
	want.Job = entity.Ptr("Oak St")
	want.Lot = entity.Ptr("14")
	want.Description = entity.Ptr("Final Clean")
	want.Amount = entity.Ptr("1,250.00")
	want.Customer = entity.Ptr("Granville Homes")

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_EmptyText(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract(nil)

	assert.Nil(t, got.PONumber)
	assert.Nil(t, got.Job)
	assert.Nil(t, got.Lot)
	assert.Nil(t, got.Description)
	assert.Nil(t, got.Amount)
	assert.Nil(t, got.Customer)
	assert.Equal(t, "Unknown", got.JobLocation)
	assert.Equal(t, "NET30", got.TermsCode)
	assert.Equal(t, "LM", got.Signature)
}

func TestExtract_PONumberWhitespaceRemoved(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract([]string{"PO: wxyz1 - 22 -  654321 end"})
	require.NotNil(t, got.PONumber)
	assert.Equal(t, "wxyz1-22-654321", *got.PONumber)
}

func TestPONumberChain_Precedence(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name     string
		pages    []string
		wantRule string
		want     string
	}{
		{
			name:     "full text wins",
			pages:    []string{"header\nAAAA-B-111111\nPurchase Order\nCCCC-D-222222"},
			wantRule: "po.full_text",
			want:     "AAAA-B-111111",
		},
		{
			name:     "nothing anywhere",
			pages:    []string{"Purchase Order\nno number here"},
			wantRule: "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, rule, ok := e.poNumber.Run(NewInput(tc.pages))
			assert.Equal(t, tc.wantRule, rule)
			if tc.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.want, m[0])
		})
	}
}

func TestMarkerLinesRule(t *testing.T) {
	// The rule is exercised directly: the full-text rule would already find any
	// number the marker scan can reach.
	rule := markerLinesRule("po.marker", "Purchase Order", rePONumber, 3)

	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{"same line", []string{"Purchase Order # ABCD-1-123456"}, "ABCD-1-123456"},
		{"next line", []string{"Purchase Order\nABCD-1-123456"}, "ABCD-1-123456"},
		{"third line", []string{"Purchase Order\na\nb\n  ABCD-1-123456  "}, "ABCD-1-123456"},
		{"fourth line is too far", []string{"Purchase Order\na\nb\nc\nABCD-1-123456"}, ""},
		{"lookahead stays on page", []string{"Purchase Order\n", "ABCD-1-123456"}, ""},
		{"second marker", []string{"Purchase Order\nx\ny\nz\nw\nPurchase Order ZZZZ-9-000001"}, "ZZZZ-9-000001"},
		{"no marker", []string{"ABCD-1-123456"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, ok := rule.Apply(NewInput(tc.pages))
			if tc.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.want, m[0])
		})
	}
}

func TestMarkerRecoversSameValueAsMarkerLine(t *testing.T) {
	rule := markerLinesRule("po.marker", "Purchase Order", rePONumber, 3)
	onLine, ok := rule.Apply(NewInput([]string{"Purchase Order QRST-77-765432"}))
	require.True(t, ok)
	below, ok := rule.Apply(NewInput([]string{"Purchase Order\n\nQRST-77-765432"}))
	require.True(t, ok)
	assert.Equal(t, onLine, below)
}

func TestExtract_JobLocation(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"fresno", "Lot: 14\n123 Main St\nFresno, CA 93711\n", "123 Main St\nFresno, CA"},
		{"clovis", "Lot: 7 \n9 Elm Ave\nClovis, CA 93612", "9 Elm Ave\nClovis, CA"},
		{"unrecognized city", "Lot: 14\n123 Main St\nMadera, CA 93637\n", "Unknown"},
		{"no lot marker", "123 Main St\nFresno, CA 93711\n", "Unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, e.Extract([]string{tc.text}).JobLocation)
		})
	}
}

func TestExtract_ConfiguredCity(t *testing.T) {
	e, err := New(Config{Cities: []string{"Madera"}, CraftCode: "4440"}, nil)
	require.NoError(t, err)
	got := e.Extract([]string{"Lot: 3\n1 Oak Rd\nMadera, CA 93637\n"})
	assert.Equal(t, "1 Oak Rd\nMadera, CA", got.JobLocation)
	assert.Nil(t, got.Customer, "empty customer match never matches")
}

func TestExtract_JobLotBothOrNeither(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Extract([]string{"Project: Oak St\nLot: \n"})
	assert.Nil(t, got.Job)
	assert.Nil(t, got.Lot)

	got = e.Extract([]string{"Project: Oak St\nLot: 14\n"})
	require.NotNil(t, got.Job)
	require.NotNil(t, got.Lot)
	assert.Equal(t, "Oak St", *got.Job)
	assert.Equal(t, "14", *got.Lot)
}

func TestExtract_DescriptionAndAmount(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Extract([]string{"Craft: 5550 - Paint\nTotal: 2,000\n"})
	assert.Nil(t, got.Description, "other craft codes are ignored")
	require.NotNil(t, got.Amount)
	assert.Equal(t, "2,000", *got.Amount)

	got = e.Extract([]string{"Craft:4440-Rough Clean\r\nTotal:   $875.5"})
	require.NotNil(t, got.Description)
	assert.Equal(t, "Rough Clean", *got.Description)
	require.NotNil(t, got.Amount)
	assert.Equal(t, "875.5", *got.Amount)
}

func TestExtract_AmountPunctuation(t *testing.T) {
	e := newTestExtractor(t)
	tests := []struct {
		name string
		text string
		want *string
	}{
		{"sentence period", "Total: $1,250.00.\n", entity.Ptr("1,250.00")},
		{"trailing comma", "Total: 2,000, net 30\n", entity.Ptr("2,000")},
		{"dangling decimal point", "Total: $875.\n", entity.Ptr("875")},
		{"no digits", "Total: $.\n", nil},
		{"leading dot only", "Total: .50\n", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Extract([]string{tc.text})
			assert.Equal(t, tc.want, got.Amount)
			assert.NoError(t, entity.CheckAmount(got.Amount), "captured amounts always parse")
		})
	}
}

func TestExtract_FormFeedPages(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract([]string{"Project: Oak St\fLot: 14\n"})
	require.NotNil(t, got.Job)
	assert.Equal(t, "Oak St", *got.Job)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{CraftCode: "4440"}, nil)
	assert.Error(t, err)
	_, err = New(Config{Cities: []string{"Fresno"}}, nil)
	assert.Error(t, err)
}

func TestChain_StopsAtFirstSuccess(t *testing.T) {
	calls := 0
	c := Chain{
		{Name: "miss", Apply: func(*Input) (Match, bool) { calls++; return nil, false }},
		{Name: "hit", Apply: func(*Input) (Match, bool) { calls++; return Match{"a"}, true }},
		{Name: "never", Apply: func(*Input) (Match, bool) { calls++; return Match{"b"}, true }},
	}
	m, rule, ok := c.Run(NewInput(nil))
	require.True(t, ok)
	assert.Equal(t, "hit", rule)
	assert.Equal(t, Match{"a"}, m)
	assert.Equal(t, 2, calls)
}

func TestExtract_ConfiguredSignature(t *testing.T) {
	e, err := New(Config{Cities: []string{"Fresno"}, CraftCode: "4440", Signature: " JD "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "JD", e.Extract(nil).Signature)
}
