package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/productd/config"
	"github.com/shashiranjanraj/productd/pkg/event"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Env:            "testing",
		Host:           "127.0.0.1",
		Port:           "0",
		DatabaseDriver: "sqlite",
		DatabaseDSN:    filepath.Join(t.TempDir(), "app.db") + "?_busy_timeout=5000",
		CacheDriver:    "memory",
		CacheTTL:       time.Minute,
	}
}

func newApp(t *testing.T) *Application {
	t.Helper()
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.EnsureSchema(context.Background()))
	return a
}

func TestNewFailsOnBadDriverAndCleansUp(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = "nosuch"

	a, err := New(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, a)
}

func TestNewFailsOnBadCacheDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheDriver = "memcached"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestKernelServesProducts(t *testing.T) {
	a := newApp(t)

	var fired []string
	a.Bus.ListenAll(func(_ context.Context, e event.Event) { fired = append(fired, e.Name) })

	k, err := a.Kernel()
	require.NoError(t, err)
	h := k.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products/",
		strings.NewReader(`{"name":"Lamp","description":"Desk lamp"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/product/1", nil))
	assert.JSONEq(t, `{"id":1,"name":"Lamp","description":"Desk lamp"}`, rec.Body.String())

	assert.Equal(t, []string{event.ProductCreated}, fired)
}

func TestSeedIsIdempotent(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, a.Seed(ctx, &out))
	assert.Contains(t, out.String(), "products")

	k, err := a.Kernel()
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/", nil))
	first := rec.Body.String()
	assert.Contains(t, first, "Desk Lamp")

	require.NoError(t, a.Seed(ctx, &out))
	rec = httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/", nil))
	assert.JSONEq(t, first, rec.Body.String())
}

func TestExportThenImport(t *testing.T) {
	config.Set("STORAGE_LOCAL_ROOT", t.TempDir())
	config.Set("STORAGE_DISK", "local")
	t.Cleanup(func() {
		config.Set("STORAGE_LOCAL_ROOT", "")
		config.Set("STORAGE_DISK", "")
	})

	src := newApp(t)
	ctx := context.Background()
	require.NoError(t, src.Seed(ctx, &bytes.Buffer{}))

	n, err := src.ExportProducts(ctx, "", "exports/products.json")
	require.NoError(t, err)
	assert.Positive(t, n)

	dst := newApp(t)
	res, err := dst.ImportProducts(ctx, "local", "exports/products.json", 3)
	require.NoError(t, err)
	assert.Equal(t, n, res.Imported)

	_, err = dst.ExportProducts(ctx, "s3", "x.json")
	assert.Error(t, err, "s3 disk is not configured")
}

func TestRouteTable(t *testing.T) {
	routes, err := RouteTable()
	require.NoError(t, err)

	paths := map[string]bool{}
	for _, r := range routes {
		paths[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /products/", "GET /products/", "GET /product/{product_id}",
		"PUT /product/{product_id}", "DELETE /product/{product_id}",
		"GET /health", "GET /metrics", "GET /ws/products", "GET /events/products",
		"POST /graphql",
	} {
		assert.True(t, paths[want], want)
	}
}

func TestCloseIsRepeatable(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}
