// Package graph exposes the product read operations as a GraphQL schema:
//
//	{ product(id: 1) { id name description } }
//	{ products { id name } }
package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/productd/app/models"
	"github.com/shashiranjanraj/productd/app/services"
	gql "github.com/shashiranjanraj/productd/pkg/graphql"
)

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

// NewSchema builds the schema over svc. Resolvers use the session bound to
// the request context, so the handler must be mounted behind database.Scope.
func NewSchema(svc *services.ProductService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(int)
					if id < 0 {
						return nil, services.ErrProductNotFound
					}
					product, err := svc.Get(p.Context, uint(id))
					if err != nil {
						return nil, err
					}
					return toMap(product), nil
				},
			},
			"products": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(productType))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					products, err := svc.List(p.Context)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(products))
					for i, product := range products {
						out[i] = toMap(product)
					}
					return out, nil
				},
			},
		},
	})

	return gql.NewSchema(query)
}

func toMap(p models.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":          int(p.ID),
		"name":        p.Name,
		"description": p.Description,
	}
}
