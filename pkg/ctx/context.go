// Package ctx provides a request context for handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context with helpers for params, binding and replies:
//
//	func Show(c *ctx.Context) {
//	    id, ok := c.ParamInt("product_id")
//	    if !ok {
//	        return // 422 already sent
//	    }
//	    c.OK(product)
//	}
//
//	router.Get("/product/{product_id}", "products.show", ctx.Wrap(Show))
package ctx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/productd/pkg/bind"
	"github.com/shashiranjanraj/productd/pkg/logger"
	"github.com/shashiranjanraj/productd/pkg/response"
	"github.com/shashiranjanraj/productd/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// ─── Context ──────────────────────────────────────────────────────────────────

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	mu     sync.RWMutex
	store  map[string]any
	status int // written status code (0 = not written yet)
}

var pool = sync.Pool{
	New: func() any { return &Context{store: make(map[string]any)} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	for k := range c.store {
		delete(c.store, k)
	}
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// ParamInt parses an integer path parameter. Integers beyond int64 are
// clamped to its bounds, so callers see them as ids that cannot exist. On a
// non-integer it sends a 422 naming the parameter and returns false.
func (c *Context) ParamInt(key string) (int64, bool) {
	raw := c.Param(key)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		c.ValidationError(map[string]string{
			key: fmt.Sprintf("The %s path parameter must be an integer, got %q.", key, raw),
		})
		return 0, false
	}
	return n, true
}

// Query returns a query-string value. Returns "" if not present.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// Header returns the value of a request header.
func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// Method returns the HTTP method of the request.
func (c *Context) Method() string { return c.R.Method }

// Path returns the request URL path.
func (c *Context) Path() string { return c.R.URL.Path }

// ClientIP returns the client IP, respecting X-Forwarded-For.
func (c *Context) ClientIP() string {
	if fwd := c.R.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	ip := c.R.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// ─── Per-request store ────────────────────────────────────────────────────────

// Set stores a value in the per-request key-value store.
func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	c.store[key] = val
	c.mu.Unlock()
}

// Get retrieves a value from the per-request store.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes the JSON body into dest and runs validation.
// Malformed or missing bodies and validation failures get a 422, bodies over
// MAX_BODY_BYTES a 413. The response is then already written and false is
// returned.
//
//	var input requests.ProductInput
//	if !c.BindJSON(&input) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		if errors.Is(err, bind.ErrBodyTooLarge) {
			c.Error(http.StatusRequestEntityTooLarge, err.Error())
		} else {
			c.Error(http.StatusUnprocessableEntity, err.Error())
		}
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// JSON writes a JSON response with the given status code.
func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// OK sends v with a 200.
func (c *Context) OK(v any) {
	c.JSON(http.StatusOK, v)
}

// Error sends {"detail": message}.
func (c *Context) Error(code int, message string) {
	c.JSON(code, response.ErrorBody{Detail: message})
}

// ValidationError sends a 422 with field-level errors.
func (c *Context) ValidationError(errs map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, response.ErrorBody{Detail: errs})
}

// NotFound sends a 404.
func (c *Context) NotFound(message ...string) {
	msg := "Not Found"
	if len(message) > 0 {
		msg = message[0]
	}
	c.Error(http.StatusNotFound, msg)
}

// InternalError logs err with the request-scoped logger and sends a generic 500.
func (c *Context) InternalError(err error) {
	logger.WithCtx(c.Context()).Error("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	)
	c.Error(http.StatusInternalServerError, "Internal Server Error")
}

// WrittenStatus returns the status code written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
