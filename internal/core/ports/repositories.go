package ports

import (
	"context"

	"github.com/samirrijal/gateflow/internal/core/domain"
)

// ReportRepository stages raw position reports, grouped by batch label.
type ReportRepository interface {
	InsertBatch(ctx context.Context, batch string, rows []domain.RawReport) (int64, error)
	// ListByBatch returns the batch's rows in load order. It returns
	// domain.ErrBatchNotFound when no row carries the label.
	ListByBatch(ctx context.Context, batch string) ([]domain.RawReport, error)
	GetBatch(ctx context.Context, batch string) (*domain.Batch, error)
	ListBatches(ctx context.Context) ([]domain.Batch, error)
}
