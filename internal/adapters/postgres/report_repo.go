package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/gateflow/internal/core/domain"
)

const insertBatchSize = 500

// ReportRepo implements ports.ReportRepository on the ais_reports table.
type ReportRepo struct {
	db *DB
}

func NewReportRepo(db *DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// InsertBatch stages rows under the batch label, queueing them in pgx
// batches of insertBatchSize. It returns the number of rows written.
func (r *ReportRepo) InsertBatch(ctx context.Context, batch string, rows []domain.RawReport) (int64, error) {
	var total int64
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))

		b := &pgx.Batch{}
		for _, row := range rows[start:end] {
			b.Queue(`
				INSERT INTO ais_reports (batch, mmsi, lat, lon, cog, length, speed)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, batch, row.MMSI, row.Lat, row.Lon, row.Cog, row.Length, row.Speed)
		}

		if err := r.flush(ctx, b, end-start); err != nil {
			return total, fmt.Errorf("insert rows %d-%d: %w", start, end, err)
		}
		total += int64(end - start)
	}
	return total, nil
}

func (r *ReportRepo) flush(ctx context.Context, b *pgx.Batch, count int) error {
	br := r.db.Pool.SendBatch(ctx, b)
	defer br.Close()
	for i := 0; i < count; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	return nil
}

func (r *ReportRepo) ListByBatch(ctx context.Context, batch string) ([]domain.RawReport, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT mmsi, lat, lon, cog, length, speed
		FROM ais_reports
		WHERE batch = $1
		ORDER BY id
	`, batch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []domain.RawReport
	for rows.Next() {
		var rr domain.RawReport
		if err := rows.Scan(&rr.MMSI, &rr.Lat, &rr.Lon, &rr.Cog, &rr.Length, &rr.Speed); err != nil {
			return nil, err
		}
		reports = append(reports, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, domain.ErrBatchNotFound
	}
	return reports, nil
}

func (r *ReportRepo) GetBatch(ctx context.Context, batch string) (*domain.Batch, error) {
	var (
		b        = domain.Batch{Name: batch}
		loadedAt *time.Time
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*), max(loaded_at)
		FROM ais_reports
		WHERE batch = $1
	`, batch).Scan(&b.Rows, &loadedAt)
	if err != nil {
		return nil, err
	}
	if b.Rows == 0 {
		return nil, domain.ErrBatchNotFound
	}
	b.LoadedAt = *loadedAt
	return &b, nil
}

func (r *ReportRepo) ListBatches(ctx context.Context) ([]domain.Batch, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT batch, count(*), max(loaded_at)
		FROM ais_reports
		GROUP BY batch
		ORDER BY max(loaded_at) DESC, batch
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := []domain.Batch{}
	for rows.Next() {
		var b domain.Batch
		if err := rows.Scan(&b.Name, &b.Rows, &b.LoadedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
