package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/infra/memory"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVariant(t *testing.T, s *memory.Store, stock int64) model.ProductVariant {
	t.Helper()
	p, err := s.Products().Create(context.Background(), model.Product{
		Name: "Tee", Slug: "tee", BasePrice: 600, SellingPrice: 500, Status: model.ProductStatusActive,
		Variants: []model.ProductVariant{{Size: "M", Color: "Black", Stock: stock}},
	})
	require.NoError(t, err)
	return p.Variants[0]
}

func stockOf(t *testing.T, s *memory.Store, id string) int64 {
	t.Helper()
	v, err := s.Products().FindVariantByID(context.Background(), id)
	require.NoError(t, err)
	return v.Stock
}

func TestWithinTx_RollbackDiscardsWrites(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	v := seedVariant(t, s, 3)

	var orderID string
	boom := errors.New("boom")
	err := s.TxManager().WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().Create(ctx, model.Order{UserID: "u1", AddressID: "a1", Status: model.OrderStatusPending})
		require.NoError(t, err)
		orderID = o.ID

		ok, err := r.Inventory().DecrementStockIfEnough(ctx, v.ID, 2)
		require.NoError(t, err)
		require.True(t, ok)

		// tx内では書いた値が見える
		got, err := r.Products().FindVariantByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Stock)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Orders().FindByID(ctx, orderID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.Equal(t, int64(3), stockOf(t, s, v.ID))
}

func TestWithinTx_CommitAppliesWrites(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	v := seedVariant(t, s, 3)

	err := s.TxManager().WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Inventory().DecrementStockIfEnough(ctx, v.ID, 3)
		if err != nil || !ok {
			return errors.New("decrement")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stockOf(t, s, v.ID))
}

func TestWithinTx_CanceledContext(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.TxManager().WithinTx(ctx, func(r repo.TxRepos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

// 同じ在庫を取り合っても減算は在庫分しか成功しない
func TestDecrementStockIfEnough_Concurrent(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	v := seedVariant(t, s, 5)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.TxManager().WithinTx(ctx, func(r repo.TxRepos) error {
				ok, err := r.Inventory().DecrementStockIfEnough(ctx, v.ID, 1)
				if err != nil || !ok {
					return errors.New("out of stock")
				}
				mu.Lock()
				won++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, won)
	assert.Equal(t, int64(0), stockOf(t, s, v.ID))
}

func TestOrderUpdateStatus_Conditional(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	o, err := s.Orders().Create(ctx, model.Order{UserID: "u1", AddressID: "a1", Status: model.OrderStatusPending})
	require.NoError(t, err)

	require.NoError(t, s.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusPending, model.OrderStatusConfirmed, nil))
	assert.ErrorIs(t, s.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusPending, model.OrderStatusCancelled, nil), repo.ErrConflict)
	assert.ErrorIs(t, s.Orders().UpdateStatus(ctx, "missing", model.OrderStatusPending, model.OrderStatusConfirmed, nil), repo.ErrConflict)

	got, err := s.Orders().FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, got.Status)
}

func TestUsers_EmailIsUnique(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	u := &model.User{Name: "A", Email: "a@example.com", PasswordHash: "x"}
	require.NoError(t, s.Users().Create(ctx, u))
	assert.Equal(t, model.RoleCustomer, u.Role)

	err := s.Users().Create(ctx, &model.User{Name: "B", Email: "A@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestListAdmin_SearchAndPaging(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	asha := &model.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "x"}
	require.NoError(t, s.Users().Create(ctx, asha))

	var last model.Order
	for i := 0; i < 3; i++ {
		o, err := s.Orders().Create(ctx, model.Order{UserID: asha.ID, AddressID: "a1", Status: model.OrderStatusPending})
		require.NoError(t, err)
		last = o
	}
	_, err := s.Orders().Create(ctx, model.Order{UserID: "someone", AddressID: "a2", Status: model.OrderStatusShipped})
	require.NoError(t, err)

	list, total, err := s.Orders().ListAdmin(ctx, repo.AdminOrderListFilter{Search: "ASHA", Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 2)
	assert.Equal(t, last.ID, list[0].ID)

	list, total, err = s.Orders().ListAdmin(ctx, repo.AdminOrderListFilter{Status: "SHIPPED"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}

func TestCartLines_DanglingVariantIsAnError(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	v := seedVariant(t, s, 3)

	cart, err := s.Carts().GetOrCreateByUserID(ctx, "u1")
	require.NoError(t, err)
	_, err = s.CartItems().UpsertByCartAndVariant(ctx, cart.ID, v.ID, 1)
	require.NoError(t, err)
	_, err = s.CartItems().UpsertByCartAndVariant(ctx, cart.ID, "missing-variant", 1)
	require.NoError(t, err)

	_, err = s.CartItems().ListLinesByCartID(ctx, cart.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	n, err := s.Carts().ClearItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
