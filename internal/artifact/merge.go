package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/invoice-bundler/internal/pdfdoc"
)

var ErrNoParts = errors.New("nothing to merge")

// Merger concatenates artifacts page for page in caller order.
type Merger struct {
	logger *slog.Logger
}

func NewMerger(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{logger: logger}
}

// Merge never reorders or deduplicates. The output page count must equal the
// sum of the inputs.
func (m *Merger) Merge(ctx context.Context, parts ...Artifact) (Bundle, error) {
	if len(parts) == 0 {
		return Bundle{}, ErrNoParts
	}
	if err := ctx.Err(); err != nil {
		return Bundle{}, err
	}

	sections := make([]Section, 0, len(parts))
	docs := make([][]byte, 0, len(parts))
	page := 1
	for _, p := range parts {
		n := p.Pages
		if n <= 0 {
			var err error
			if n, err = pdfdoc.PageCount(p.Data); err != nil {
				return Bundle{}, fmt.Errorf("%s: %w", p.Name, err)
			}
		}
		sections = append(sections, Section{Name: p.Name, Kind: p.Kind, FirstPage: page, Pages: n})
		page += n
		docs = append(docs, p.Data)
	}
	want := page - 1

	var data []byte
	if len(parts) == 1 {
		data = bytes.Clone(parts[0].Data)
	} else {
		var buf bytes.Buffer
		if err := pdfdoc.Merge(&buf, docs...); err != nil {
			return Bundle{}, err
		}
		data = buf.Bytes()
	}

	got, err := pdfdoc.PageCount(data)
	if err != nil {
		return Bundle{}, err
	}
	if got != want {
		return Bundle{}, fmt.Errorf("merged %d pages, expected %d", got, want)
	}

	m.logger.Debug("merge.ok", "parts", len(parts), "pages", got)
	return Bundle{Data: data, Pages: got, Sections: sections}, nil
}
