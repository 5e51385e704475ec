package postgres

import (
	"context"
	"testing"

	"cv-hub/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	got := rebind(`SELECT id FROM cv_versions WHERE cv_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`)
	assert.Equal(t, `SELECT id FROM cv_versions WHERE cv_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, got)
}

func TestConnect_EmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), config.DatabaseConfig{})
	assert.Error(t, err)
}

func TestNilPool(t *testing.T) {
	var p *Pool
	assert.Error(t, p.Ping(context.Background()))
	assert.NoError(t, p.Close())
	assert.Error(t, p.QueryRow(context.Background(), "SELECT 1").Scan())
}
