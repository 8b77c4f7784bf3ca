package constants

// DocStatus is the outcome recorded for each purchase order in a batch.
type DocStatus string

const (
	DocStatusOK      DocStatus = "OK"
	DocStatusFailed  DocStatus = "FAILED"
	DocStatusSkipped DocStatus = "SKIPPED" // batch aborted before this document
)

// Stage names a step of per-document processing; used in error reports.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageCorrect  Stage = "correct"
	StageAllocate Stage = "allocate"
	StageInvoice  Stage = "invoice"
	StageWaiver   Stage = "waiver"
	StageMerge    Stage = "merge"
)
