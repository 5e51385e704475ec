package repository

import (
	"context"
	"errors"
	"time"

	"cv-hub/internal/database"
)

var (
	ErrConfigNotFound = errors.New("system config not found")
	ErrConfigExists   = errors.New("system config already exists")
)

type SystemConfig struct {
	ID        int64
	Key       string
	Value     string
	UpdatedAt time.Time
}

type SystemConfigRepository interface {
	FindByKey(ctx context.Context, key string) (SystemConfig, error)
	Create(ctx context.Context, key, value string, now time.Time) (SystemConfig, error)
	Update(ctx context.Context, key, value string, now time.Time) (SystemConfig, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]SystemConfig, error)
}

type SQLSystemConfigRepository struct {
	q database.Querier
}

func NewSystemConfigRepository(q database.Querier) *SQLSystemConfigRepository {
	return &SQLSystemConfigRepository{q: q}
}

func (r *SQLSystemConfigRepository) FindByKey(ctx context.Context, key string) (SystemConfig, error) {
	row := r.q.QueryRow(ctx, `SELECT id, key, value, updated_at FROM system_config WHERE key = ?`, key)
	c, err := scanConfig(row)
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return SystemConfig{}, ErrConfigNotFound
		}
		return SystemConfig{}, err
	}
	return c, nil
}

func (r *SQLSystemConfigRepository) Create(ctx context.Context, key, value string, now time.Time) (SystemConfig, error) {
	var id int64
	err := r.q.QueryRow(ctx,
		`INSERT INTO system_config (key, value, updated_at) VALUES (?, ?, ?) RETURNING id`,
		key, value, database.FormatTime(now),
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return SystemConfig{}, ErrConfigExists
		}
		return SystemConfig{}, err
	}
	return SystemConfig{ID: id, Key: key, Value: value, UpdatedAt: now.UTC()}, nil
}

func (r *SQLSystemConfigRepository) Update(ctx context.Context, key, value string, now time.Time) (SystemConfig, error) {
	n, err := r.q.Exec(ctx,
		`UPDATE system_config SET value = ?, updated_at = ? WHERE key = ?`,
		value, database.FormatTime(now), key,
	)
	if err != nil {
		return SystemConfig{}, err
	}
	if n == 0 {
		return SystemConfig{}, ErrConfigNotFound
	}
	return r.FindByKey(ctx, key)
}

func (r *SQLSystemConfigRepository) Delete(ctx context.Context, key string) (bool, error) {
	n, err := r.q.Exec(ctx, `DELETE FROM system_config WHERE key = ?`, key)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLSystemConfigRepository) List(ctx context.Context) ([]SystemConfig, error) {
	rows, err := r.q.Query(ctx, `SELECT id, key, value, updated_at FROM system_config ORDER BY key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SystemConfig, 0)
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanConfig(s scanner) (SystemConfig, error) {
	var (
		c         SystemConfig
		updatedAt string
	)
	if err := s.Scan(&c.ID, &c.Key, &c.Value, &updatedAt); err != nil {
		return SystemConfig{}, err
	}
	t, err := database.ParseTime(updatedAt)
	if err != nil {
		return SystemConfig{}, err
	}
	c.UpdatedAt = t
	return c, nil
}
