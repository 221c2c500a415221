// Package kernel assembles the HTTP handler: global middleware, the metrics
// endpoint and the application routes.
package kernel

import (
	"net/http"

	"github.com/shashiranjanraj/productd/pkg/metrics"
	"github.com/shashiranjanraj/productd/pkg/middleware"
	"github.com/shashiranjanraj/productd/pkg/reqid"
	"github.com/shashiranjanraj/productd/pkg/router"
)

// RouteFunc registers routes on r.
type RouteFunc func(r *router.Router) error

type HTTPKernel struct {
	router *router.Router
}

// NewHTTPKernel installs the global middleware stack and then every route
// function in order. Middleware order, outermost first: metrics (total
// latency), request id, access log, panic recovery, CORS.
func NewHTTPKernel(fns ...RouteFunc) (*HTTPKernel, error) {
	r := router.New()

	r.Use(metrics.Middleware())
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))

	r.Handle(http.MethodGet, "/metrics", "metrics", metrics.Handler())

	for _, fn := range fns {
		if err := fn(r); err != nil {
			return nil, err
		}
	}
	return &HTTPKernel{router: r}, nil
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

func (k *HTTPKernel) Routes() []router.RouteInfo { return k.router.Routes() }
