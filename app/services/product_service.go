package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/productd/app/models"
	"github.com/shashiranjanraj/productd/app/repositories"
	"github.com/shashiranjanraj/productd/app/requests"
	"github.com/shashiranjanraj/productd/pkg/cache"
	"github.com/shashiranjanraj/productd/pkg/database"
	"github.com/shashiranjanraj/productd/pkg/event"
	"github.com/shashiranjanraj/productd/pkg/logger"
	"github.com/shashiranjanraj/productd/pkg/orm"
)

// ErrProductNotFound is returned when no product has the requested id.
var ErrProductNotFound = errors.New("product not found")

// ProductService implements the product operations. Every method runs on
// the session bound to ctx (see database.Scope).
type ProductService struct {
	bus   *event.Bus
	cache cache.Store
	ttl   time.Duration
}

func NewProductService(bus *event.Bus, store cache.Store, ttl time.Duration) *ProductService {
	if store == nil {
		store = cache.Null{}
	}
	return &ProductService{bus: bus, cache: store, ttl: ttl}
}

func (s *ProductService) repo(ctx context.Context) (*repositories.ProductRepository, error) {
	db, err := database.Session(ctx)
	if err != nil {
		return nil, err
	}
	return repositories.NewProductRepository(db).WithCache(s.cache, s.ttl), nil
}

// Create inserts a product and returns it with its new id.
func (s *ProductService) Create(ctx context.Context, in requests.ProductInput) (models.Product, error) {
	repo, err := s.repo(ctx)
	if err != nil {
		return models.Product{}, err
	}

	p := in.Model()
	if err := repo.Create(ctx, &p); err != nil {
		return models.Product{}, fmt.Errorf("products: create: %w", err)
	}

	s.forget(ctx, repo, p.ID)
	s.bus.Fire(ctx, event.ProductCreated, p)
	return p, nil
}

// Get returns the product with id.
func (s *ProductService) Get(ctx context.Context, id uint) (models.Product, error) {
	repo, err := s.repo(ctx)
	if err != nil {
		return models.Product{}, err
	}

	p, err := repo.FindCached(ctx, id)
	if err != nil {
		return models.Product{}, notFound("get", err)
	}
	return p, nil
}

// List returns every product. No products is an empty slice, not an error.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	repo, err := s.repo(ctx)
	if err != nil {
		return nil, err
	}

	products, err := repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	return products, nil
}

// Update overwrites name and description of product id and returns the
// stored result. Lookup and write share one transaction.
func (s *ProductService) Update(ctx context.Context, id uint, in requests.ProductInput) (models.Product, error) {
	repo, err := s.repo(ctx)
	if err != nil {
		return models.Product{}, err
	}

	var p models.Product
	err = repo.Transaction(ctx, func(tx *repositories.ProductRepository) error {
		found, err := tx.Find(ctx, id)
		if err != nil {
			return err
		}
		in.Apply(&found)
		if err := tx.Update(ctx, &found); err != nil {
			return err
		}
		p = found
		return nil
	})
	if err != nil {
		return models.Product{}, notFound("update", err)
	}

	s.forget(ctx, repo, id)
	s.bus.Fire(ctx, event.ProductUpdated, p)
	return p, nil
}

// Delete removes product id and returns it as it was before deletion.
// Lookup and delete share one transaction.
func (s *ProductService) Delete(ctx context.Context, id uint) (models.Product, error) {
	repo, err := s.repo(ctx)
	if err != nil {
		return models.Product{}, err
	}

	var p models.Product
	err = repo.Transaction(ctx, func(tx *repositories.ProductRepository) error {
		found, err := tx.Find(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, &found); err != nil {
			return err
		}
		p = found
		return nil
	})
	if err != nil {
		return models.Product{}, notFound("delete", err)
	}

	s.forget(ctx, repo, id)
	s.bus.Fire(ctx, event.ProductDeleted, p)
	return p, nil
}

// forget invalidates the cached copy before the caller responds. A failure
// is logged; the write itself already succeeded.
func (s *ProductService) forget(ctx context.Context, repo *repositories.ProductRepository, id uint) {
	if err := repo.Forget(ctx, id); err != nil {
		logger.WithCtx(ctx).Warn("products: cache invalidation failed", "product_id", id, "error", err)
	}
}

func notFound(op string, err error) error {
	if errors.Is(err, orm.ErrNotFound) {
		return ErrProductNotFound
	}
	return fmt.Errorf("products: %s: %w", op, err)
}
