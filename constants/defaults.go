package constants

// Display and record defaults. Missing fields resolve to these at render time.
const (
	DefaultJobLocation = "Unknown"
	DefaultTermsCode   = "NET30"
	DefaultSignature   = "LM"
	DefaultPONumber    = "N/A"
	DefaultAmount      = "0.00"

	DescriptionStandard   = "Interior Cleaning"
	DescriptionOutOfScope = "Services rendered outside scope"

	InvoicePrefix       = "INV-"
	InitialInvoiceValue = int64(1001)

	DateLayout = "01/02/2006"
)
