package bind_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/productd/config"
	"github.com/shashiranjanraj/productd/pkg/bind"
)

type input struct {
	Name *string `json:"name" validate:"required"`
}

func TestJSONValid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Lamp"}`))

	var in input
	errs, err := bind.JSON(req, &in)
	require.NoError(t, err)
	assert.Nil(t, errs)
	require.NotNil(t, in.Name)
	assert.Equal(t, "Lamp", *in.Name)
}

func TestJSONValidationErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":null}`))

	var in input
	errs, err := bind.JSON(req, &in)
	require.NoError(t, err)
	assert.Contains(t, errs, "name")
}

func TestJSONMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))

	_, err := bind.JSON(req, &input{})
	assert.ErrorIs(t, err, bind.ErrInvalidJSON)
}

func TestJSONEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	_, err := bind.JSON(req, &input{})
	assert.ErrorIs(t, err, bind.ErrEmptyBody)
}

func TestJSONTooLarge(t *testing.T) {
	config.Set("MAX_BODY_BYTES", "16")
	t.Cleanup(func() { config.Set("MAX_BODY_BYTES", "") })

	body := `{"name":"` + strings.Repeat("x", 64) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	_, err := bind.JSON(req, &input{})
	assert.ErrorIs(t, err, bind.ErrBodyTooLarge)
}
