package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-bundler/constants"
	"github.com/joseph-ayodele/invoice-bundler/internal/artifact"
	"github.com/joseph-ayodele/invoice-bundler/internal/common"
)

// Item records the outcome for one submitted document.
type Item struct {
	Document string
	Status   constants.DocStatus
	Result   *Result
	Err      error
}

// BatchResult holds per-document outcomes in submission order.
type BatchResult struct {
	RunID    uuid.UUID
	Started  time.Time
	Items    []Item
	Combined *artifact.Bundle
}

// Succeeded returns the results of documents that produced a bundle.
func (b BatchResult) Succeeded() []Result {
	var out []Result
	for _, it := range b.Items {
		if it.Result != nil && it.Status == constants.DocStatusOK {
			out = append(out, *it.Result)
		}
	}
	return out
}

// Failed returns the per-document errors.
func (b BatchResult) Failed() []Item {
	var out []Item
	for _, it := range b.Items {
		if it.Status == constants.DocStatusFailed {
			out = append(out, it)
		}
	}
	return out
}

// Batch processes documents one at a time in submission order.
type Batch struct {
	Processor *Processor
	Merger    Merger
	Combine   bool // concatenate all bundles into one output
	Logger    *slog.Logger
}

func (b *Batch) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

// Run processes docs. Per-document failures are recorded and the batch moves
// on; an unavailable allocator aborts it and the remaining documents are
// marked skipped. The returned error is non-nil only on abort.
func (b *Batch) Run(ctx context.Context, docs []Document) (BatchResult, error) {
	res := BatchResult{RunID: uuid.New(), Started: time.Now()}
	ctx = common.WithRunID(ctx, res.RunID)
	log := b.logger().With("run_id", res.RunID)
	log.Info("batch.start", "documents", len(docs))

	var fatal error
	for i, doc := range docs {
		if fatal == nil {
			if err := ctx.Err(); err != nil {
				fatal = err
			}
		}
		if fatal != nil {
			res.Items = append(res.Items, Item{Document: doc.Name, Status: constants.DocStatusSkipped})
			continue
		}

		r, err := b.Processor.Process(ctx, doc)
		if err != nil {
			res.Items = append(res.Items, Item{Document: doc.Name, Status: constants.DocStatusFailed, Err: err})
			if common.IsFatalForBatch(err) {
				fatal = err
				log.Error("batch.abort", "file", doc.Name, "index", i, "error", err)
			}
			continue
		}
		res.Items = append(res.Items, Item{Document: doc.Name, Status: constants.DocStatusOK, Result: &r})
	}

	if fatal != nil {
		return res, fmt.Errorf("batch aborted: %w", fatal)
	}

	if b.Combine {
		ok := res.Succeeded()
		if len(ok) > 0 {
			parts := make([]artifact.Artifact, len(ok))
			for i, r := range ok {
				parts[i] = r.Bundle.AsArtifact(string(r.InvoiceID))
			}
			combined, err := b.Merger.Merge(ctx, parts...)
			if err != nil {
				return res, stageErr(constants.CombinedBundleName, constants.StageMerge, err)
			}
			res.Combined = &combined
		}
	}

	log.Info("batch.done",
		"ok", len(res.Succeeded()),
		"failed", len(res.Failed()),
		"duration_ms", time.Since(res.Started).Milliseconds(),
	)
	return res, nil
}

// LoadDocuments reads the given files in order. Unreadable files still get
// an entry so they are reported with the rest of the batch.
func LoadDocuments(paths []string) ([]Document, []error) {
	docs := make([]Document, 0, len(paths))
	var errs []error
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			errs = append(errs, stageErr(filepath.Base(p), constants.StageExtract, err))
			continue
		}
		docs = append(docs, Document{Name: filepath.Base(p), Data: data})
	}
	return docs, errs
}

// WriteOutputs stores each bundle as <dir>/<invoice id>.pdf and the combined
// bundle under its fixed name. It returns the written paths.
func WriteOutputs(dir string, res BatchResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var written []string
	var errs []error
	write := func(name string, data []byte) {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, data, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", p, err))
			return
		}
		written = append(written, p)
	}
	for _, r := range res.Succeeded() {
		write(string(r.InvoiceID)+".pdf", r.Bundle.Data)
	}
	if res.Combined != nil {
		write(constants.CombinedBundleName, res.Combined.Data)
	}
	return written, errors.Join(errs...)
}
