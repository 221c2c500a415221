package database

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/productd/pkg/logger"
	"github.com/shashiranjanraj/productd/pkg/response"
	"github.com/shashiranjanraj/productd/pkg/router"
)

// ErrNoSession is returned by Session when the context was not produced by
// Scope (or WithSession).
var ErrNoSession = errors.New("database: no session in context")

type sessionKey struct{}

// WithSession stores a session in ctx. Scope does this per request; the CLI
// and tests use it directly.
func WithSession(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, sessionKey{}, db)
}

// Session returns the session bound to ctx, already carrying ctx for
// cancellation.
func Session(ctx context.Context) (*gorm.DB, error) {
	db, ok := ctx.Value(sessionKey{}).(*gorm.DB)
	if !ok || db == nil {
		return nil, ErrNoSession
	}
	return db.WithContext(ctx), nil
}

// Scope gives every request its own dedicated connection from the pool.
// The connection is checked out before the handler runs and returned when
// the handler finishes, including when it panics. If no connection can be
// obtained the handler is not called and the client gets a 500.
func Scope(db *gorm.DB) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entered := false
			err := db.WithContext(r.Context()).Connection(func(conn *gorm.DB) error {
				entered = true
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), conn)))
				return nil
			})
			if err != nil && !entered {
				logger.WithCtx(r.Context()).Error("database: acquire session", "error", err)
				response.InternalError(w)
			}
		})
	}
}
