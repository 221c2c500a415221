package seeders

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/productd/app/models"
	"github.com/shashiranjanraj/productd/app/repositories"
)

func init() {
	Register("products", SeedProducts)
}

var sampleProducts = []models.Product{
	{Name: "Desk Lamp", Description: "Adjustable LED desk lamp"},
	{Name: "Notebook", Description: "A5 dotted notebook, 120 pages"},
	{Name: "Mechanical Keyboard", Description: "Tenkeyless, brown switches"},
	{Name: "Coffee Mug", Description: "Ceramic, 350 ml"},
}

// SeedProducts inserts the sample products into an empty table and leaves a
// populated one alone.
func SeedProducts(ctx context.Context, db *gorm.DB) error {
	repo := repositories.NewProductRepository(db)

	n, err := repo.Count(ctx)
	if err != nil || n > 0 {
		return err
	}

	return repo.Transaction(ctx, func(tx *repositories.ProductRepository) error {
		for _, p := range sampleProducts {
			if err := tx.Create(ctx, &p); err != nil {
				return err
			}
		}
		return nil
	})
}
