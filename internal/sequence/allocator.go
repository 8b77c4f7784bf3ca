package sequence

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/invoice-bundler/internal/common"
	"github.com/joseph-ayodele/invoice-bundler/internal/entity"
)

// Allocator hands out invoice identifiers from a Store. Every successful Next
// consumes a value; nothing is rolled back when later stages fail.
type Allocator struct {
	store  Store
	logger *slog.Logger
}

func NewAllocator(store Store, logger *slog.Logger) *Allocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{store: store, logger: logger}
}

// Next issues the next identifier.
func (a *Allocator) Next(ctx context.Context) (entity.InvoiceID, error) {
	n, err := a.store.IncrementAndGet(ctx)
	if err != nil {
		a.logger.Error("sequence.next.failed", "error", err)
		return "", common.AllocatorUnavailable("allocate invoice number", err)
	}
	id := entity.NewInvoiceID(n)
	a.logger.Info("sequence.next", "invoice_id", id)
	return id, nil
}

// Peek returns the identifier Next would issue, without consuming it.
func (a *Allocator) Peek(ctx context.Context) (entity.InvoiceID, error) {
	n, err := a.store.Read(ctx)
	if err != nil {
		return "", common.AllocatorUnavailable("read invoice counter", err)
	}
	return entity.NewInvoiceID(n), nil
}

func (a *Allocator) Close() error {
	return a.store.Close()
}
