// Package resources shapes models for API responses.
package resources

import (
	"github.com/shashiranjanraj/productd/app/models"
	"github.com/shashiranjanraj/productd/pkg/collection"
)

// Product is the public representation of models.Product.
type Product struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func NewProduct(p models.Product) Product {
	return Product{ID: p.ID, Name: p.Name, Description: p.Description}
}

// NewProducts maps a result set. A nil or empty input yields an empty,
// non-nil slice so it encodes as [] rather than null.
func NewProducts(ps []models.Product) []Product {
	if len(ps) == 0 {
		return []Product{}
	}
	return collection.Map(ps, NewProduct)
}
