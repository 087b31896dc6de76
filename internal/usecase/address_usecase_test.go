package usecase_test

import (
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func addressInput(name string, isDefault bool) usecase.AddressInput {
	return usecase.AddressInput{
		FullName:     name,
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560001",
		IsDefault:    isDefault,
	}
}

func TestAddressUsecase_SingleDefault(t *testing.T) {
	f := newFixture(t)
	cust := f.customer("asha@example.com")
	uc := usecase.NewAddressUsecase(f.store.Addresses(), zap.NewNop())

	home, err := uc.Create(f.ctx, cust, addressInput(" Home ", true))
	require.NoError(t, err)
	assert.Equal(t, "Home", home.FullName)
	office, err := uc.Create(f.ctx, cust, addressInput("Office", true))
	require.NoError(t, err)

	list, err := uc.List(f.ctx, cust)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, office.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.False(t, list[1].IsDefault)

	require.NoError(t, uc.SetDefault(f.ctx, cust, home.ID))
	list, err = uc.List(f.ctx, cust)
	require.NoError(t, err)
	assert.Equal(t, home.ID, list[0].ID)
	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestAddressUsecase_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	cust := f.customer("asha@example.com")
	other := f.customer("ravi@example.com")
	uc := usecase.NewAddressUsecase(f.store.Addresses(), zap.NewNop())

	a, err := uc.Create(f.ctx, cust, addressInput("Home", false))
	require.NoError(t, err)

	in := addressInput("Home", false)
	in.City = "Mysuru"
	updated, err := uc.Update(f.ctx, cust, a.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", updated.City)

	_, err = uc.Update(f.ctx, other, a.ID, in)
	assertHTTPError(t, err, usecase.ErrNotFound, http.StatusNotFound, "Address not found")
	err = uc.Delete(f.ctx, other, a.ID)
	assertHTTPError(t, err, usecase.ErrNotFound, http.StatusNotFound, "Address not found")

	// 注文で使われた住所は消せない
	used, err := uc.Create(f.ctx, cust, addressInput("Shipped to", false))
	require.NoError(t, err)
	f.order(cust, used.ID, model.OrderStatusPending)
	err = uc.Delete(f.ctx, cust, used.ID)
	assertHTTPError(t, err, usecase.ErrValidation, http.StatusBadRequest, "Cannot delete address linked to orders")

	require.NoError(t, uc.Delete(f.ctx, cust, a.ID))
	list, err := uc.List(f.ctx, cust)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, used.ID, list[0].ID)
}
