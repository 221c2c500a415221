package reqid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/productd/pkg/reqid"
)

func serve(t *testing.T, incoming string) (seen string, rec *httptest.ResponseRecorder) {
	t.Helper()
	h := reqid.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = reqid.FromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(reqid.Header, incoming)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, rec
}

func TestGeneratesUUID(t *testing.T) {
	seen, rec := serve(t, "")

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(reqid.Header))
}

func TestHonoursUpstreamID(t *testing.T) {
	seen, rec := serve(t, "gateway-123")

	assert.Equal(t, "gateway-123", seen)
	assert.Equal(t, "gateway-123", rec.Header().Get(reqid.Header))
}

func TestReplacesOversizedID(t *testing.T) {
	seen, _ := serve(t, strings.Repeat("a", 500))
	assert.Len(t, seen, 36)
}
