package routes

import (
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/productd/app/controllers"
	"github.com/shashiranjanraj/productd/app/graph"
	"github.com/shashiranjanraj/productd/app/services"
	"github.com/shashiranjanraj/productd/pkg/ctx"
	"github.com/shashiranjanraj/productd/pkg/database"
	"github.com/shashiranjanraj/productd/pkg/graphql"
	"github.com/shashiranjanraj/productd/pkg/router"
)

// Deps is what the routes need from bootstrap. Feed and Events may be nil,
// in which case that change feed endpoint is not mounted.
type Deps struct {
	DB       *gorm.DB
	Products *services.ProductService
	Feed     http.Handler // websocket
	Events   http.Handler // server-sent events
}

// RegisterAPI mounts every endpoint. Handlers that touch the products table
// run inside database.Scope so each request gets its own session.
func RegisterAPI(r *router.Router, d Deps) error {
	products := controllers.NewProductController(d.Products)
	health := controllers.NewHealthController(d.DB)

	r.Get("/health", "health", ctx.Wrap(health.Check))

	scoped := r.Group("", database.Scope(d.DB))
	scoped.Post("/products/", "products.store", ctx.Wrap(products.Store))
	scoped.Get("/products/", "products.index", ctx.Wrap(products.Index))
	scoped.Get("/product/{product_id}", "products.show", ctx.Wrap(products.Show))
	scoped.Put("/product/{product_id}", "products.update", ctx.Wrap(products.Update))
	scoped.Delete("/product/{product_id}", "products.destroy", ctx.Wrap(products.Destroy))

	schema, err := graph.NewSchema(d.Products)
	if err != nil {
		return fmt.Errorf("routes: graphql schema: %w", err)
	}
	gql := graphql.Handler(schema)
	scoped.Get("/graphql", "graphql.query", gql)
	scoped.Post("/graphql", "graphql.execute", gql)

	if d.Feed != nil {
		r.Handle(http.MethodGet, "/ws/products", "products.feed", d.Feed)
	}
	if d.Events != nil {
		r.Handle(http.MethodGet, "/events/products", "products.events", d.Events)
	}
	return nil
}
