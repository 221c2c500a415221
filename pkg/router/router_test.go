package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(body)) }
}

func header(key, value string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add(key, value)
			next.ServeHTTP(w, r)
		})
	}
}

func TestJoinPathKeepsTrailingSlash(t *testing.T) {
	assert.Equal(t, "/products/", joinPath("/", "/products/"))
	assert.Equal(t, "/product/{product_id}", joinPath("/", "product/{product_id}"))
	assert.Equal(t, "/api/products", joinPath("/api/", "products"))
	assert.Equal(t, "/", joinPath("/", ""))
}

func TestMethodsAndGroupMiddleware(t *testing.T) {
	r := New()
	g := r.Group("/", header("X-Group", "1"))
	g.Post("/products/", "products.store", ok("store"))
	g.Get("/product/{product_id}", "products.show", ok("show"))
	g.Put("/product/{product_id}", "products.update", ok("update"))
	g.Delete("/product/{product_id}", "products.destroy", ok("destroy"), header("X-Route", "1"))
	r.Get("/health", "health", ok("up"))

	cases := []struct {
		method, path, body string
		grouped            bool
	}{
		{http.MethodPost, "/products/", "store", true},
		{http.MethodGet, "/product/4", "show", true},
		{http.MethodPut, "/product/4", "update", true},
		{http.MethodDelete, "/product/4", "destroy", true},
		{http.MethodGet, "/health", "up", false},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.Handler().ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, tc.path)
		assert.Equal(t, tc.body, rec.Body.String())
		assert.Equal(t, tc.grouped, rec.Header().Get("X-Group") == "1", tc.path)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/product/1", nil))
	assert.Equal(t, "1", rec.Header().Get("X-Route"))
}

func TestURLAndRoutes(t *testing.T) {
	r := New()
	r.Get("/product/{product_id}", "products.show", ok(""))
	r.Put("/product/{product_id}", "", ok(""))
	r.Get("/products/", "products.index", ok(""))

	u, err := r.URL("products.show", map[string]string{"product_id": "9"})
	require.NoError(t, err)
	assert.Equal(t, "/product/9", u)

	_, err = r.URL("products.show", nil)
	assert.Error(t, err)
	_, err = r.URL("nope", nil)
	assert.Error(t, err)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, RouteInfo{Method: http.MethodGet, Path: "/product/{product_id}", Name: "products.show"}, routes[0])
	assert.Equal(t, http.MethodPut, routes[1].Method)
	assert.Equal(t, "/products/", routes[2].Path)
}
