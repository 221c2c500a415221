package app

// Operations behind the productd CLI sub-commands other than serve.

import (
	"context"
	"io"

	"github.com/shashiranjanraj/productd/app/routes"
	"github.com/shashiranjanraj/productd/app/services"
	"github.com/shashiranjanraj/productd/database/seeders"
	"github.com/shashiranjanraj/productd/internal/kernel"
	"github.com/shashiranjanraj/productd/pkg/database"
	"github.com/shashiranjanraj/productd/pkg/router"
	"github.com/shashiranjanraj/productd/pkg/sse"
	"github.com/shashiranjanraj/productd/pkg/storage"
	"github.com/shashiranjanraj/productd/pkg/ws"
)

// RouteTable lists every HTTP route without touching the database.
func RouteTable() ([]router.RouteInfo, error) {
	k, err := kernel.NewHTTPKernel(func(r *router.Router) error {
		return routes.RegisterAPI(r, routes.Deps{
			Products: services.NewProductService(nil, nil, 0),
			Feed:     ws.NewHub(),
			Events:   sse.NewBroker(),
		})
	})
	if err != nil {
		return nil, err
	}
	return k.Routes(), nil
}

// Seed ensures the schema and runs every registered seeder.
func (a *Application) Seed(ctx context.Context, out io.Writer) error {
	if err := a.EnsureSchema(ctx); err != nil {
		return err
	}
	return seeders.RunAll(ctx, a.DB, out)
}

// ExportProducts writes all products to path on the named disk ("" for the
// default disk).
func (a *Application) ExportProducts(ctx context.Context, disk, path string) (int, error) {
	d, err := a.disk(ctx, disk)
	if err != nil {
		return 0, err
	}
	return a.Products.Export(database.WithSession(ctx, a.DB), d, path)
}

// ImportProducts creates a product for every valid row of the JSON file at
// path, using workers concurrent inserters.
func (a *Application) ImportProducts(ctx context.Context, disk, path string, workers int) (services.ImportResult, error) {
	if err := a.EnsureSchema(ctx); err != nil {
		return services.ImportResult{}, err
	}
	d, err := a.disk(ctx, disk)
	if err != nil {
		return services.ImportResult{}, err
	}
	return a.Products.Import(database.WithSession(ctx, a.DB), d, path, workers)
}

func (a *Application) disk(ctx context.Context, name string) (storage.Disk, error) {
	m, err := storage.NewManager(ctx, storage.ConfigFromEnv())
	if err != nil {
		return nil, err
	}
	return m.Disk(name)
}
