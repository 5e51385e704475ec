package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cv-hub/internal/database"
	"cv-hub/internal/domain/cv"
)

type NewVersion struct {
	CVID     int64
	Data     []byte
	Status   cv.Status
	Source   string
	FileHash string
}

type CVVersionRepository interface {
	Create(ctx context.Context, v NewVersion, now time.Time) (cv.Version, error)
	FindByID(ctx context.Context, id int64) (cv.Version, error)
	List(ctx context.Context, cvID int64, limit, offset int) ([]cv.Version, error)
	Count(ctx context.Context, cvID int64) (int, error)
}

type SQLCVVersionRepository struct {
	q database.Querier
}

func NewCVVersionRepository(q database.Querier) *SQLCVVersionRepository {
	return &SQLCVVersionRepository{q: q}
}

const versionColumns = `id, cv_id, data, status, source, file_hash, created_at`

func (r *SQLCVVersionRepository) Create(ctx context.Context, v NewVersion, now time.Time) (cv.Version, error) {
	if v.Status == "" {
		v.Status = cv.StatusArchived
	}

	var id int64
	err := r.q.QueryRow(ctx,
		`INSERT INTO cv_versions (cv_id, data, status, source, file_hash, created_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		v.CVID, string(v.Data), string(v.Status), nullString(v.Source), nullString(v.FileHash), database.FormatTime(now),
	).Scan(&id)
	if err != nil {
		return cv.Version{}, err
	}

	return cv.Version{
		ID:        id,
		CVID:      v.CVID,
		Data:      v.Data,
		Status:    v.Status,
		Source:    v.Source,
		FileHash:  v.FileHash,
		CreatedAt: now.UTC(),
	}, nil
}

func (r *SQLCVVersionRepository) FindByID(ctx context.Context, id int64) (cv.Version, error) {
	row := r.q.QueryRow(ctx, `SELECT `+versionColumns+` FROM cv_versions WHERE id = ?`, id)
	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return cv.Version{}, cv.ErrVersionNotFound
		}
		return cv.Version{}, err
	}
	return v, nil
}

// List returns versions newest first. Ties on created_at fall back to id so paging is stable.
func (r *SQLCVVersionRepository) List(ctx context.Context, cvID int64, limit, offset int) ([]cv.Version, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+versionColumns+` FROM cv_versions WHERE cv_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		cvID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]cv.Version, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLCVVersionRepository) Count(ctx context.Context, cvID int64) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM cv_versions WHERE cv_id = ?`, cvID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(s scanner) (cv.Version, error) {
	var (
		v         cv.Version
		data      string
		status    string
		source    sql.NullString
		fileHash  sql.NullString
		createdAt string
	)
	if err := s.Scan(&v.ID, &v.CVID, &data, &status, &source, &fileHash, &createdAt); err != nil {
		return cv.Version{}, err
	}

	t, err := database.ParseTime(createdAt)
	if err != nil {
		return cv.Version{}, err
	}
	v.Data = []byte(data)
	v.Status = cv.Status(status)
	v.Source = source.String
	v.FileHash = fileHash.String
	v.CreatedAt = t
	return v, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
