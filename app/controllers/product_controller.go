package controllers

import (
	"errors"

	"github.com/shashiranjanraj/productd/app/requests"
	"github.com/shashiranjanraj/productd/app/resources"
	"github.com/shashiranjanraj/productd/app/services"
	"github.com/shashiranjanraj/productd/pkg/ctx"
)

const (
	productIDParam  = "product_id"
	productNotFound = "Product not found"
)

type ProductController struct {
	service *services.ProductService
}

func NewProductController(service *services.ProductService) *ProductController {
	return &ProductController{service: service}
}

// Store handles POST /products/.
func (pc *ProductController) Store(c *ctx.Context) {
	var in requests.ProductInput
	if !c.BindJSON(&in) {
		return
	}

	p, err := pc.service.Create(c.Context(), in)
	if err != nil {
		c.InternalError(err)
		return
	}
	c.OK(resources.NewProduct(p))
}

// Show handles GET /product/{product_id}.
func (pc *ProductController) Show(c *ctx.Context) {
	raw, ok := c.ParamInt(productIDParam)
	if !ok {
		return
	}
	id, ok := existingID(c, raw)
	if !ok {
		return
	}

	p, err := pc.service.Get(c.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(resources.NewProduct(p))
}

// Index handles GET /products/.
func (pc *ProductController) Index(c *ctx.Context) {
	products, err := pc.service.List(c.Context())
	if err != nil {
		c.InternalError(err)
		return
	}
	c.OK(resources.NewProducts(products))
}

// Update handles PUT /product/{product_id}.
func (pc *ProductController) Update(c *ctx.Context) {
	raw, ok := c.ParamInt(productIDParam)
	if !ok {
		return
	}

	var in requests.ProductInput
	if !c.BindJSON(&in) {
		return
	}

	id, ok := existingID(c, raw)
	if !ok {
		return
	}

	p, err := pc.service.Update(c.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(resources.NewProduct(p))
}

// Destroy handles DELETE /product/{product_id}.
func (pc *ProductController) Destroy(c *ctx.Context) {
	raw, ok := c.ParamInt(productIDParam)
	if !ok {
		return
	}
	id, ok := existingID(c, raw)
	if !ok {
		return
	}

	p, err := pc.service.Delete(c.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(resources.NewProduct(p))
}

// existingID maps a path id onto the id space of stored products. Negative
// ids are valid input that can never match a row.
func existingID(c *ctx.Context, raw int64) (uint, bool) {
	if raw < 0 {
		c.NotFound(productNotFound)
		return 0, false
	}
	return uint(raw), true
}

func fail(c *ctx.Context, err error) {
	if errors.Is(err, services.ErrProductNotFound) {
		c.NotFound(productNotFound)
		return
	}
	c.InternalError(err)
}
