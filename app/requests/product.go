// Package requests holds the bodies the API accepts.
package requests

import "github.com/shashiranjanraj/productd/app/models"

// ProductInput is the body of create and update. Both fields must be sent
// and non-null; empty strings are allowed. An id in the body is ignored.
type ProductInput struct {
	Name        *string `json:"name"        validate:"required"`
	Description *string `json:"description" validate:"required"`
}

// Apply copies the input onto p, leaving p.ID untouched.
func (in ProductInput) Apply(p *models.Product) {
	p.Name = *in.Name
	p.Description = *in.Description
}

// Model builds a new, unsaved product from the input.
func (in ProductInput) Model() models.Product {
	var p models.Product
	in.Apply(&p)
	return p
}
