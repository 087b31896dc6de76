package usecase_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/infra/memory"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =====================
// Fixtures（memory.Store上に最小限のデータを作る）
// =====================

type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *memory.Store
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:       t,
		ctx:     context.Background(),
		store:   memory.NewStore(),
		metrics: metrics.New(nil),
	}
}

func (f *fixture) user(email string, role model.Role) usecase.Principal {
	f.t.Helper()
	u := &model.User{Name: "Test " + email, Email: email, PasswordHash: "x", Role: role}
	require.NoError(f.t, f.store.Users().Create(f.ctx, u))
	return usecase.Principal{UserID: u.ID, Role: role}
}

func (f *fixture) customer(email string) usecase.Principal {
	return f.user(email, model.RoleCustomer)
}

func (f *fixture) admin() usecase.Principal {
	return f.user("admin@example.com", model.RoleAdmin)
}

func (f *fixture) address(p usecase.Principal) model.Address {
	f.t.Helper()
	a, err := f.store.Addresses().Create(f.ctx, model.Address{
		UserID:       p.UserID,
		FullName:     "Asha Rao",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560001",
	})
	require.NoError(f.t, err)
	return a
}

// 1商品1variant。戻り値はvariant
func (f *fixture) variant(name string, price, stock int64) model.ProductVariant {
	f.t.Helper()
	p, err := f.store.Products().Create(f.ctx, model.Product{
		Name:         name,
		Slug:         strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		BasePrice:    price,
		SellingPrice: price,
		Status:       model.ProductStatusActive,
		Variants:     []model.ProductVariant{{Size: "M", Color: "Black", Stock: stock}},
	})
	require.NoError(f.t, err)
	return p.Variants[0]
}

func (f *fixture) addToCart(p usecase.Principal, variantID string, qty int64) {
	f.t.Helper()
	err := f.store.TxManager().WithinTx(f.ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateByUserID(f.ctx, p.UserID)
		if err != nil {
			return err
		}
		_, err = r.CartItems().UpsertByCartAndVariant(f.ctx, cart.ID, variantID, qty)
		return err
	})
	require.NoError(f.t, err)
}

func (f *fixture) stockOf(variantID string) int64 {
	f.t.Helper()
	v, err := f.store.Products().FindVariantByID(f.ctx, variantID)
	require.NoError(f.t, err)
	return v.Stock
}

func (f *fixture) cartLines(p usecase.Principal) []model.CartLine {
	f.t.Helper()
	cart, err := f.store.Carts().FindByUserID(f.ctx, p.UserID)
	if err != nil {
		return nil
	}
	lines, err := f.store.CartItems().ListLinesByCartID(f.ctx, cart.ID)
	require.NoError(f.t, err)
	return lines
}

func (f *fixture) orderCount(p usecase.Principal) int64 {
	f.t.Helper()
	_, total, err := f.store.Orders().ListByUserID(f.ctx, p.UserID, 1, 100)
	require.NoError(f.t, err)
	return total
}

func (f *fixture) order(p usecase.Principal, addressID string, status model.OrderStatus) model.Order {
	f.t.Helper()
	o, err := f.store.Orders().Create(f.ctx, model.Order{
		UserID:        p.UserID,
		AddressID:     addressID,
		Status:        status,
		PaymentMethod: model.PaymentMethodCOD,
		PaymentStatus: model.PaymentStatusUnpaid,
		TotalAmount:   1000,
	})
	require.NoError(f.t, err)
	return o
}

// =====================
// Test doubles
// =====================

// 送ったイベントを記録する
type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return p.err
}

// 常に同じ結果を返すロック
type stubLocker struct {
	ok       bool
	err      error
	released int
}

func (l *stubLocker) Acquire(ctx context.Context, userID string) (func(context.Context) error, bool, error) {
	if l.err != nil || !l.ok {
		return nil, l.ok, l.err
	}
	return func(context.Context) error {
		l.released++
		return nil
	}, true, nil
}

// memoryのTxReposの一部だけ差し替える
type overrideTxManager struct {
	inner     repo.TransactionManager
	inventory repo.InventoryRepository
	orders    repo.OrderRepository
	cartItems repo.CartItemRepository
}

func (m *overrideTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return m.inner.WithinTx(ctx, func(r repo.TxRepos) error {
		return fn(&overrideTxRepos{TxRepos: r, m: m})
	})
}

type overrideTxRepos struct {
	repo.TxRepos
	m *overrideTxManager
}

func (r *overrideTxRepos) Inventory() repo.InventoryRepository {
	if r.m.inventory != nil {
		return r.m.inventory
	}
	return r.TxRepos.Inventory()
}

func (r *overrideTxRepos) Orders() repo.OrderRepository {
	if r.m.orders != nil {
		return r.m.orders
	}
	return r.TxRepos.Orders()
}

func (r *overrideTxRepos) CartItems() repo.CartItemRepository {
	if r.m.cartItems != nil {
		return r.m.cartItems
	}
	return r.TxRepos.CartItems()
}

// 先に読んだ明細を返し続ける（READ COMMITTEDで別txのコミット前に読んだ状態）
type staleCartItems struct {
	repo.CartItemRepository
	lines []model.CartLine
}

func (s *staleCartItems) ListLinesByCartID(ctx context.Context, cartID string) ([]model.CartLine, error) {
	return s.lines, nil
}

// =====================
// Helper: HTTPErrorの中身を確認
// =====================

func assertHTTPError(t *testing.T, err error, kind error, status int, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "err=%v", err)
	assert.Equal(t, status, he.Status)
	if msg != "" {
		assert.Equal(t, msg, he.Message)
	}
}
