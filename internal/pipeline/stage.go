package pipeline

import (
	"fmt"

	"github.com/joseph-ayodele/invoice-bundler/constants"
)

// StageError reports which document failed and at which step.
type StageError struct {
	Document string
	Stage    constants.Stage
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Document, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(doc string, stage constants.Stage, err error) error {
	return &StageError{Document: doc, Stage: stage, Err: err}
}
