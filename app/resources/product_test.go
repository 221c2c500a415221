package resources

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/productd/app/models"
)

func TestNewProductsEncodesEmptyAsArray(t *testing.T) {
	out, err := json.Marshal(NewProducts(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestNewProducts(t *testing.T) {
	got := NewProducts([]models.Product{
		{ID: 1, Name: "Lamp", Description: "Desk lamp"},
		{ID: 2, Name: "Chair", Description: ""},
	})

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":1,"name":"Lamp","description":"Desk lamp"},
		{"id":2,"name":"Chair","description":""}
	]`, string(out))
}
