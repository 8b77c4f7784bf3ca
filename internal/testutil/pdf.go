// Package testutil builds small fixture documents for tests.
package testutil

import (
	"bytes"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
)

var fixtureDate = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

// PDF returns a document with one page per entry of pages, each page
// carrying its text line by line.
func PDF(t testing.TB, pages ...string) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCreationDate(fixtureDate)
	doc.SetModificationDate(fixtureDate)
	doc.SetCatalogSort(true)
	doc.SetFont("Helvetica", "", 11)
	for _, p := range pages {
		doc.AddPage()
		doc.MultiCell(0, 6, p, "", "L", false)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("render fixture pdf: %v", err)
	}
	return buf.Bytes()
}
