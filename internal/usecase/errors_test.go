package usecase

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError_StatusMapping(t *testing.T) {
	cases := []struct {
		kind   error
		status int
	}{
		{ErrInvalidAddress, http.StatusBadRequest},
		{ErrEmptyCart, http.StatusBadRequest},
		{ErrInsufficientStock, http.StatusBadRequest},
		{ErrInvalidTransition, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrOrderNotFound, http.StatusNotFound},
		{ErrOrderPlacementFailed, http.StatusConflict},
		{ErrCheckoutInProgress, http.StatusConflict},
		{ErrInternal, http.StatusInternalServerError},
		{errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		err := NewError(tc.kind, "msg")
		he, ok := AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, tc.status, he.Status, tc.kind.Error())
		assert.ErrorIs(t, err, tc.kind)
	}
}

func TestAsHTTPError_Wrapped(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewError(ErrEmptyCart, "Cart is empty"))

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, "Cart is empty", he.Message)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.NotErrorIs(t, err, ErrInvalidAddress)

	_, ok = AsHTTPError(errors.New("plain"))
	assert.False(t, ok)
}
