package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazario/models"
	"bazario/repository"
)

func newProductService(t *testing.T) (*ProductService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	return NewProductService(repository.NewMemoryProducts(store)), store
}

func TestProductOwnership(t *testing.T) {
	svc, _ := newProductService(t)
	ctx := context.Background()
	owner := &models.User{ID: 1, Role: models.RoleVendor}
	other := &models.User{ID: 2, Role: models.RoleVendor}
	admin := &models.User{ID: 3, Role: models.RoleAdmin}

	p, err := svc.Create(ctx, owner, models.Product{
		Name:  "Ceramic Mug",
		Price: decimal.RequireFromString("10.00"),
		Stock: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, p.VendorID)

	_, err = svc.Update(ctx, other, models.Product{ID: p.ID, Name: "Stolen Mug"})
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.Delete(ctx, other, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// admins may delete any product
	require.NoError(t, svc.Delete(ctx, admin, p.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProductUpdatePreservesStock(t *testing.T) {
	svc, _ := newProductService(t)
	ctx := context.Background()
	owner := &models.User{ID: 1, Role: models.RoleVendor}

	p, err := svc.Create(ctx, owner, models.Product{
		Name:  "Ceramic Mug",
		Price: decimal.RequireFromString("10.00"),
		Stock: 5,
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, owner, models.Product{
		ID:    p.ID,
		Name:  "Ceramic Mug v2",
		Price: decimal.RequireFromString("12.00"),
		Stock: 999, // ignored; stock moves only through the order lifecycle
	})
	require.NoError(t, err)
	assert.Equal(t, "Ceramic Mug v2", updated.Name)
	assert.EqualValues(t, 5, updated.Stock)
	assert.Equal(t, owner.ID, updated.VendorID)
}

func TestReviewRatingBounds(t *testing.T) {
	store := repository.NewMemoryStore()
	products := repository.NewMemoryProducts(store)
	svc := NewReviewService(repository.NewMemoryReviews(store), products)
	ctx := context.Background()
	customer := &models.User{ID: 1, Role: models.RoleCustomer}

	p := &models.Product{Name: "Ceramic Mug"}
	require.NoError(t, products.Create(ctx, p))

	_, err := svc.Add(ctx, customer, p.ID, 0, "bad")
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = svc.Add(ctx, customer, p.ID, 6, "too good")
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = svc.Add(ctx, customer, 999, 4, "ghost product")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	r, err := svc.Add(ctx, customer, p.ID, 4, "solid mug")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, r.CustomerID)

	list, err := svc.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
