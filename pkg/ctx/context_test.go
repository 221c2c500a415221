package ctx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/productd/config"
	appctx "github.com/shashiranjanraj/productd/pkg/ctx"
)

type productInput struct {
	Name        *string `json:"name"        validate:"required"`
	Description *string `json:"description" validate:"required"`
}

func run(req *http.Request, h appctx.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	appctx.Wrap(h)(rec, req)
	return rec
}

func TestOK(t *testing.T) {
	rec := run(httptest.NewRequest(http.MethodGet, "/", nil), func(c *appctx.Context) {
		c.OK(map[string]any{"id": 1})
		assert.Equal(t, http.StatusOK, c.WrittenStatus())
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1}`, rec.Body.String())
}

func TestParamInt(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/product/{product_id}", appctx.Wrap(func(c *appctx.Context) {
		id, ok := c.ParamInt("product_id")
		if !ok {
			return
		}
		c.OK(map[string]int64{"id": id})
	}))

	for raw, want := range map[string]string{
		"42":                   `{"id":42}`,
		"-1":                   `{"id":-1}`,
		"18446744073709551615": `{"id":9223372036854775807}`,
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/product/"+raw, nil))
		assert.Equal(t, http.StatusOK, rec.Code, raw)
		assert.JSONEq(t, want, rec.Body.String(), raw)
	}

	for _, bad := range []string{"abc", "1.5", "0x10"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/product/"+bad, nil))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, bad)
		assert.Contains(t, rec.Body.String(), `"product_id"`)
	}
}

func TestBindJSONValid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Lamp","description":""}`))
	run(req, func(c *appctx.Context) {
		var in productInput
		require.True(t, c.BindJSON(&in))
		assert.Equal(t, "Lamp", *in.Name)
		assert.Equal(t, "", *in.Description)
	})
}

func TestBindJSONMissingField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Lamp"}`))
	rec := run(req, func(c *appctx.Context) {
		var in productInput
		assert.False(t, c.BindJSON(&in))
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"detail":{"description":"The description field is required."}}`, rec.Body.String())
}

func TestBindJSONMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{nope`))
	rec := run(req, func(c *appctx.Context) {
		assert.False(t, c.BindJSON(&productInput{}))
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON")
}

func TestBindJSONTooLarge(t *testing.T) {
	config.Set("MAX_BODY_BYTES", "16")
	t.Cleanup(func() { config.Set("MAX_BODY_BYTES", "") })

	body := `{"name":"` + strings.Repeat("x", 64) + `","description":"d"}`
	rec := run(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), func(c *appctx.Context) {
		assert.False(t, c.BindJSON(&productInput{}))
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestErrorHelpers(t *testing.T) {
	rec := run(httptest.NewRequest(http.MethodGet, "/", nil), func(c *appctx.Context) {
		c.NotFound("Product not found")
	})
	assert.JSONEq(t, `{"detail":"Product not found"}`, rec.Body.String())

	rec = run(httptest.NewRequest(http.MethodGet, "/", nil), func(c *appctx.Context) {
		c.InternalError(errors.New("db down"))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestStoreAndClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	run(req, func(c *appctx.Context) {
		c.Set("product_id", uint(7))
		v, ok := c.Get("product_id")
		assert.True(t, ok)
		assert.Equal(t, uint(7), v)
		assert.Equal(t, "203.0.113.5", c.ClientIP())
	})
}
