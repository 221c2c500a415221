package database_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/productd/config"
	"github.com/shashiranjanraj/productd/internal/testdb"
	"github.com/shashiranjanraj/productd/pkg/database"
)

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := database.Open(context.Background(), config.Config{DatabaseDriver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestOpenEnsureSchemaIsIdempotent(t *testing.T) {
	db := testdb.Open(t)

	require.NoError(t, database.EnsureSchema(context.Background(), db, &row{}))
	require.NoError(t, database.EnsureSchema(context.Background(), db, &row{}))
	assert.True(t, db.Migrator().HasTable("products"))
	assert.True(t, db.Migrator().HasTable(&row{}))
	assert.NoError(t, database.Ping(context.Background(), db))
}

func TestPingAfterClose(t *testing.T) {
	cfg := config.Config{
		DatabaseDriver: "sqlite",
		DatabaseDSN:    filepath.Join(t.TempDir(), "closed.db"),
	}
	db, err := database.Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, database.Close(db))

	assert.Error(t, database.Ping(context.Background(), db))
}

type row struct {
	ID   uint
	Note string
}

func TestSessionWithoutScope(t *testing.T) {
	_, err := database.Session(context.Background())
	assert.ErrorIs(t, err, database.ErrNoSession)
}

func TestScopeBindsDedicatedSession(t *testing.T) {
	db := testdb.Open(t)

	var sessions []*gorm.DB
	h := database.Scope(db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := database.Session(r.Context())
		require.NoError(t, err)
		require.NoError(t, s.Exec("SELECT 1").Error)
		sessions = append(sessions, s)
		w.WriteHeader(http.StatusNoContent)
	}))

	for range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	require.Len(t, sessions, 2)
	assert.NotSame(t, sessions[0], sessions[1])

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Zero(t, sqlDB.Stats().InUse, "sessions must be returned to the pool")
}

func TestScopeReleasesOnPanic(t *testing.T) {
	db := testdb.Open(t)

	h := database.Scope(db)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	assert.Panics(t, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Zero(t, sqlDB.Stats().InUse)
}

func TestScopeAcquireFailureIs500(t *testing.T) {
	cfg := config.Config{
		DatabaseDriver: "sqlite",
		DatabaseDSN:    filepath.Join(t.TempDir(), "gone.db"),
	}
	db, err := database.Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, database.Close(db))

	called := false
	h := database.Scope(db)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, rec.Body.String())
}
