package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"cv-hub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	base := map[string]string{
		"APP_ENV":       "test",
		"DATABASE_PATH": filepath.Join(t.TempDir(), "cv-hub.db"),
		"LOG_LEVEL":     "error",
	}
	for k, v := range env {
		base[k] = v
	}
	cfg, err := config.FromEnv(func(k string) string { return base[k] })
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, env map[string]string) *App {
	t.Helper()
	ctx := context.Background()

	c, err := NewContainer(ctx, testConfig(t, env), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Seed(ctx))

	a, err := New(c)
	require.NoError(t, err)
	return a
}

func call(t *testing.T, a *App, method, path, body string, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.Fiber.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestHealth(t *testing.T) {
	a := newTestApp(t, nil)

	resp, body := call(t, a, "GET", "/api/health", "")
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "ok", gjson.GetBytes(body, "status").String())
	assert.Equal(t, "connected", gjson.GetBytes(body, "database.status").String())
	assert.Equal(t, "sqlite", gjson.GetBytes(body, "database.type").String())
	assert.True(t, gjson.GetBytes(body, "uptime").Exists())
	assert.Equal(t, "disabled", gjson.GetBytes(body, "cache").String())

	require.NoError(t, a.Container.DB.Close())
	resp, body = call(t, a, "GET", "/api/health", "")
	assert.Equal(t, 503, resp.StatusCode)
	assert.Equal(t, "error", gjson.GetBytes(body, "status").String())
	assert.Equal(t, "disconnected", gjson.GetBytes(body, "database.status").String())
}

func TestPublicCV_PrivacyAndETag(t *testing.T) {
	a := newTestApp(t, nil)

	resp, body := call(t, a, "GET", "/api/cv/public", "")
	require.Equal(t, 200, resp.StatusCode)
	assert.True(t, gjson.GetBytes(body, "success").Bool())
	assert.Equal(t, "Jane Doe", gjson.GetBytes(body, "data.basics.name").String())
	assert.False(t, gjson.GetBytes(body, "data.basics.email").Exists())
	assert.False(t, gjson.GetBytes(body, "data.basics.phone").Exists())
	assert.False(t, gjson.GetBytes(body, "data.basics.location.address").Exists())
	assert.Equal(t, "New York", gjson.GetBytes(body, "data.basics.location.city").String())
	assert.False(t, gjson.GetBytes(body, "data.skills.0.level").Exists())
	assert.Equal(t, "Confidential", gjson.GetBytes(body, "data.work.0.name").String())
	assert.Len(t, gjson.GetBytes(body, "data.work.0.highlights").Array(), 3)
	assert.Len(t, gjson.GetBytes(body, "data.projects").Array(), 1)

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "public, max-age=300", resp.Header.Get("Cache-Control"))

	resp, body = call(t, a, "GET", "/api/cv/public", "", "If-None-Match", etag)
	assert.Equal(t, 304, resp.StatusCode)
	assert.Empty(t, body)
}

func TestAdminUpdateVersionsAndRollback(t *testing.T) {
	a := newTestApp(t, nil)

	resp, body := call(t, a, "GET", "/api/cv/admin/cv", "")
	require.Equal(t, 200, resp.StatusCode)
	original := gjson.GetBytes(body, "data").Raw
	assert.Equal(t, "jane@example.com", gjson.GetBytes(body, "data.basics.email").String())

	for _, label := range []string{"Staff Engineer", "Principal Engineer"} {
		resp, body = call(t, a, "PATCH", "/api/cv/admin/cv", `{"cv":{"basics":{"label":"`+label+`"}}}`)
		require.Equal(t, 200, resp.StatusCode, string(body))
		assert.Equal(t, label, gjson.GetBytes(body, "data.basics.label").String())
		assert.Equal(t, "Jane Doe", gjson.GetBytes(body, "data.basics.name").String())
	}

	resp, body = call(t, a, "GET", "/api/cv/admin/cv/versions?limit=1", "")
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, int64(2), gjson.GetBytes(body, "pagination.total").Int())
	assert.Equal(t, int64(1), gjson.GetBytes(body, "pagination.limit").Int())
	assert.True(t, gjson.GetBytes(body, "pagination.hasNext").Bool())
	assert.Equal(t, "archived", gjson.GetBytes(body, "data.0.status").String())
	assert.Equal(t, "api-update", gjson.GetBytes(body, "data.0.source").String())
	assert.Equal(t, "Staff Engineer", gjson.GetBytes(body, "data.0.data.basics.label").String())

	resp, body = call(t, a, "GET", "/api/cv/admin/cv/versions?offset=1", "")
	require.Equal(t, 200, resp.StatusCode)
	oldest := gjson.GetBytes(body, "data.0.id").String()
	assert.False(t, gjson.GetBytes(body, "pagination.hasNext").Bool())

	resp, body = call(t, a, "GET", "/api/cv/admin/cv/versions/"+oldest, "")
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, oldest, gjson.GetBytes(body, "data.id").String())

	resp, body = call(t, a, "POST", "/api/cv/admin/cv/rollback/"+oldest, "")
	require.Equal(t, 200, resp.StatusCode, string(body))
	assert.JSONEq(t, original, gjson.GetBytes(body, "data").Raw)

	resp, body = call(t, a, "GET", "/api/cv/admin/cv/versions", "")
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, int64(3), gjson.GetBytes(body, "pagination.total").Int())
	assert.Equal(t, "rollback", gjson.GetBytes(body, "data.0.source").String())
}

func TestAdminValidationErrors(t *testing.T) {
	a := newTestApp(t, nil)

	cases := []struct {
		method, path, body string
		status             int
	}{
		{"PATCH", "/api/cv/admin/cv", `{"basics":{"label":"x"}}`, 400},
		{"PATCH", "/api/cv/admin/cv", `not json`, 400},
		{"PATCH", "/api/cv/admin/cv", `{"cv":{"basics":{"name":""}}}`, 400},
		{"GET", "/api/cv/admin/cv/versions?limit=0", "", 400},
		{"GET", "/api/cv/admin/cv/versions?limit=101", "", 400},
		{"GET", "/api/cv/admin/cv/versions?limit=abc", "", 400},
		{"GET", "/api/cv/admin/cv/versions?offset=-1", "", 400},
		{"GET", "/api/cv/admin/cv/versions/999", "", 404},
		{"POST", "/api/cv/admin/cv/rollback/abc", "", 400},
		{"POST", "/api/cv/admin/cv/rollback/999", "", 404},
	}
	for _, tc := range cases {
		resp, body := call(t, a, tc.method, tc.path, tc.body)
		assert.Equal(t, tc.status, resp.StatusCode, "%s %s: %s", tc.method, tc.path, body)
		assert.Equal(t, int64(tc.status), gjson.GetBytes(body, "statusCode").Int())
		assert.Equal(t, tc.path, gjson.GetBytes(body, "path").String())
	}
}

func TestGuardModes(t *testing.T) {
	strict := newTestApp(t, map[string]string{"EPIC_2_ADMIN_PLACEHOLDER_MODE": "strict"})
	resp, body := call(t, strict, "GET", "/api/cv/admin/cv", "")
	assert.Equal(t, 501, resp.StatusCode)
	assert.Equal(t, "Admin authentication not yet implemented. See Epic 5.", gjson.GetBytes(body, "message").String())

	resp, body = call(t, strict, "GET", "/api/cv/private/some-token", "")
	assert.Equal(t, 501, resp.StatusCode)
	assert.Equal(t, "Token-based access not yet implemented. See Epic 4.", gjson.GetBytes(body, "message").String())

	invalid := newTestApp(t, map[string]string{"EPIC_2_ADMIN_PLACEHOLDER_MODE": "sometimes"})
	resp, body = call(t, invalid, "PATCH", "/api/cv/admin/cv", `{"cv":{"basics":{"label":"x"}}}`)
	assert.Equal(t, 501, resp.StatusCode)
	assert.Equal(t, "Invalid guard configuration. See logs.", gjson.GetBytes(body, "message").String())

	open := newTestApp(t, map[string]string{"EPIC_2_PLACEHOLDER_MODE": "bypass"})
	resp, body = call(t, open, "GET", "/api/cv/private/some-token", "")
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "jane@example.com", gjson.GetBytes(body, "data.basics.email").String())
}

func TestSystemConfigRoutes(t *testing.T) {
	a := newTestApp(t, nil)

	resp, body := call(t, a, "GET", "/api/cv/admin/config/app.version", "")
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "0.1.0", gjson.GetBytes(body, "data.value").String())

	resp, _ = call(t, a, "PUT", "/api/cv/admin/config/site.title", `{"value":"Jane's CV"}`)
	assert.Equal(t, 201, resp.StatusCode)

	resp, body = call(t, a, "PUT", "/api/cv/admin/config/site.title", `{"value":"Jane Doe"}`)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Jane Doe", gjson.GetBytes(body, "data.value").String())

	resp, _ = call(t, a, "PUT", "/api/cv/admin/config/site.title", `{"other":1}`)
	assert.Equal(t, 400, resp.StatusCode)

	resp, body = call(t, a, "GET", "/api/cv/admin/config", "")
	assert.Equal(t, 200, resp.StatusCode)
	assert.Len(t, gjson.GetBytes(body, "data").Array(), 2)

	resp, _ = call(t, a, "DELETE", "/api/cv/admin/config/site.title", "")
	assert.Equal(t, 204, resp.StatusCode)

	resp, _ = call(t, a, "DELETE", "/api/cv/admin/config/site.title", "")
	assert.Equal(t, 404, resp.StatusCode)
}

func TestPageAndPDF(t *testing.T) {
	a := newTestApp(t, nil)

	resp, body := call(t, a, "GET", "/?skill=kubernetes", "")
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	html := string(body)
	assert.Contains(t, html, "Jane Doe")
	assert.Contains(t, html, "Kubernetes")
	assert.NotContains(t, html, "TypeScript")
	assert.NotContains(t, html, "jane@example.com")

	resp, body = call(t, a, "GET", "/api/cv/public/pdf", "")
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "PDF export is disabled", gjson.GetBytes(body, "message").String())
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestApp(t, nil)
	call(t, a, "GET", "/api/cv/public", "")

	resp, body := call(t, a, "GET", "/api/metrics", "")
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), `cv_hub_http_requests_total{method="GET",route="/api/cv/public",status="200"} 1`)
}

func TestAdminRateLimit(t *testing.T) {
	a := newTestApp(t, map[string]string{"ADMIN_RATE_LIMIT_RPS": "0.001", "ADMIN_RATE_LIMIT_BURST": "2"})

	for i := 0; i < 2; i++ {
		resp, _ := call(t, a, "GET", "/api/cv/admin/cv", "")
		assert.Equal(t, 200, resp.StatusCode)
	}
	resp, _ := call(t, a, "GET", "/api/cv/admin/cv", "")
	assert.Equal(t, 429, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	resp, _ = call(t, a, "GET", "/api/cv/public", "")
	assert.Equal(t, 200, resp.StatusCode, "public routes are not limited")
}

func TestListenAddr(t *testing.T) {
	addr, err := ListenAddr("3000")
	require.NoError(t, err)
	assert.Equal(t, ":3000", addr)

	addr, err = ListenAddr(":8080")
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	_, err = ListenAddr(" ")
	assert.Error(t, err)
}
