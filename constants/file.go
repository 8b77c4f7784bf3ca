package constants

import "strings"

// AllowedExtensions holds the file extensions accepted as purchase orders.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Output file names.
const (
	CombinedBundleName = "Combined_Invoices.pdf"
	LedgerName         = "ledger.xlsx"
	CounterFileName    = "invoice_counter.txt"
)
