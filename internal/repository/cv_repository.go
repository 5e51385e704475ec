package repository

import (
	"context"
	"errors"
	"time"

	"cv-hub/internal/database"
	"cv-hub/internal/domain/cv"
)

type CVRepository interface {
	GetActive(ctx context.Context) (cv.Record, error)
	Create(ctx context.Context, data []byte, now time.Time) (cv.Record, error)
	UpdateData(ctx context.Context, id int64, data []byte, now time.Time) error
}

// SQLCVRepository works on a DB or a Tx.
type SQLCVRepository struct {
	q database.Querier
}

func NewCVRepository(q database.Querier) *SQLCVRepository {
	return &SQLCVRepository{q: q}
}

// GetActive returns the single CV row. The lowest id wins if more than one exists.
func (r *SQLCVRepository) GetActive(ctx context.Context) (cv.Record, error) {
	row := r.q.QueryRow(ctx, `SELECT id, data, updated_at FROM cv ORDER BY id ASC LIMIT 1`)

	var (
		rec       cv.Record
		data      string
		updatedAt string
	)
	if err := row.Scan(&rec.ID, &data, &updatedAt); err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return cv.Record{}, cv.ErrNotFound
		}
		return cv.Record{}, err
	}

	t, err := database.ParseTime(updatedAt)
	if err != nil {
		return cv.Record{}, err
	}
	rec.Data = []byte(data)
	rec.UpdatedAt = t
	return rec, nil
}

func (r *SQLCVRepository) Create(ctx context.Context, data []byte, now time.Time) (cv.Record, error) {
	var id int64
	err := r.q.QueryRow(ctx,
		`INSERT INTO cv (data, updated_at) VALUES (?, ?) RETURNING id`,
		string(data), database.FormatTime(now),
	).Scan(&id)
	if err != nil {
		return cv.Record{}, err
	}
	return cv.Record{ID: id, Data: data, UpdatedAt: now.UTC()}, nil
}

func (r *SQLCVRepository) UpdateData(ctx context.Context, id int64, data []byte, now time.Time) error {
	n, err := r.q.Exec(ctx,
		`UPDATE cv SET data = ?, updated_at = ? WHERE id = ?`,
		string(data), database.FormatTime(now), id,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return cv.ErrNotFound
	}
	return nil
}
