package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"cv-hub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRun_ReturnsErrorWhenPortIsTaken(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)

	env := map[string]string{
		"APP_ENV":       "test",
		"PORT":          port,
		"DATABASE_PATH": filepath.Join(t.TempDir(), "server.db"),
	}
	cfg, err := config.FromEnv(func(k string) string { return env[k] })
	require.NoError(t, err)

	err = run(context.Background(), cfg, zap.NewNop(), make(chan os.Signal))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen :"+port)
}
