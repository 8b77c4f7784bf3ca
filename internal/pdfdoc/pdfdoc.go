// Package pdfdoc wraps the pdfcpu calls shared by text extraction and merging.
package pdfdoc

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Config returns a relaxed pdfcpu configuration that never touches the user's
// config directory.
func Config() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Validate reports whether data parses as a PDF container.
func Validate(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty payload")
	}
	return api.Validate(bytes.NewReader(data), Config())
}

// PageCount returns the number of pages in data.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), Config())
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// Merge concatenates docs in order into w.
func Merge(w io.Writer, docs ...[]byte) error {
	rsc := make([]io.ReadSeeker, len(docs))
	for i, d := range docs {
		rsc[i] = bytes.NewReader(d)
	}
	if err := api.MergeRaw(rsc, w, false, Config()); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	return nil
}
