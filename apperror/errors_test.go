package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":                {nil, http.StatusOK},
		"validation":         {Validation("title is required"), http.StatusBadRequest},
		"insufficient stock": {fmt.Errorf("add: %w", ErrInsufficientStock), http.StatusBadRequest},
		"invalid amount":     {ErrInvalidAmount, http.StatusBadRequest},
		"auth required":      {ErrAuthRequired, http.StatusUnauthorized},
		"auth invalid":       {ErrAuthInvalid, http.StatusUnauthorized},
		"forbidden":          {ErrForbidden, http.StatusForbidden},
		"product not found":  {ErrProductNotFound, http.StatusNotFound},
		"upstream":           {fmt.Errorf("%w: timeout", ErrUpstream), http.StatusInternalServerError},
		"persistence":        {ErrPersistence, http.StatusInternalServerError},
		"unknown":            {errors.New("boom"), http.StatusInternalServerError},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCode(tc.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "title is required", Message(Validation("title is required")))
	assert.Equal(t, "Product not found", Message(fmt.Errorf("cart: %w", ErrProductNotFound)))
	assert.Equal(t, "Payment gateway error", Message(fmt.Errorf("%w: dial tcp: refused", ErrUpstream)))
	assert.Equal(t, "Server error", Message(errors.New("secret internals")))
}

func TestErrorUnwrap(t *testing.T) {
	err := Validation("bad %s", "field")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation error: bad field", err.Error())
}
