// Package memory はrepositoryのインメモリ実装。
// DBなしでの起動とusecaseのテストに使う
package memory

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type state struct {
	users       map[string]model.User
	addresses   map[string]model.Address
	products    map[string]model.Product
	variants    map[string]model.ProductVariant
	carts       map[string]model.Cart
	cartItems   map[string]model.CartItem
	orders      map[string]model.Order
	orderItems  map[string]model.OrderItem
	wishlists   map[string]model.Wishlist
	auditLogs   []model.AuditLog
	adjustments []model.InventoryAdjustment

	refreshTokens map[string]model.RefreshToken
}

func newState() *state {
	return &state{
		users:      map[string]model.User{},
		addresses:  map[string]model.Address{},
		products:   map[string]model.Product{},
		variants:   map[string]model.ProductVariant{},
		carts:      map[string]model.Cart{},
		cartItems:  map[string]model.CartItem{},
		orders:     map[string]model.Order{},
		orderItems: map[string]model.OrderItem{},
		wishlists:  map[string]model.Wishlist{},

		refreshTokens: map[string]model.RefreshToken{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		users:       cloneMap(s.users),
		addresses:   cloneMap(s.addresses),
		products:    cloneMap(s.products),
		variants:    cloneMap(s.variants),
		carts:       cloneMap(s.carts),
		cartItems:   cloneMap(s.cartItems),
		orders:      cloneMap(s.orders),
		orderItems:  cloneMap(s.orderItems),
		wishlists:   cloneMap(s.wishlists),
		auditLogs:   append([]model.AuditLog(nil), s.auditLogs...),
		adjustments: append([]model.InventoryAdjustment(nil), s.adjustments...),

		refreshTokens: cloneMap(s.refreshTokens),
	}
}

// Store は全テーブルを1つのロックで守る。
// WithinTx はロックを握ったままコピーに書き、成功したときだけ差し替える
type Store struct {
	mu sync.Mutex
	st *state

	clockMu sync.Mutex
	last    time.Time
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// 作成順で並べられるように単調増加させる
func (s *Store) now() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	t := time.Now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// txがnilならStoreのロックを取って本体を触る
type view struct {
	store *Store
	tx    *state
}

func (v view) do(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

func (v view) now() time.Time {
	return v.store.now()
}

func (s *Store) direct() view { return view{store: s} }

func (s *Store) Users() repo.UserRepository           { return &userRepo{v: s.direct()} }
func (s *Store) Addresses() repo.AddressRepository    { return &addressRepo{v: s.direct()} }
func (s *Store) Products() repo.ProductRepository     { return &productRepo{v: s.direct()} }
func (s *Store) Inventory() repo.InventoryRepository  { return &inventoryRepo{v: s.direct()} }
func (s *Store) Carts() repo.CartRepository           { return &cartRepo{v: s.direct()} }
func (s *Store) CartItems() repo.CartItemRepository   { return &cartItemRepo{v: s.direct()} }
func (s *Store) Orders() repo.OrderRepository         { return &orderRepo{v: s.direct()} }
func (s *Store) OrderItems() repo.OrderItemRepository { return &orderItemRepo{v: s.direct()} }
func (s *Store) AuditLogs() repo.AuditLogRepository   { return &auditLogRepo{v: s.direct()} }
func (s *Store) Wishlists() repo.WishlistRepository   { return &wishlistRepo{v: s.direct()} }
func (s *Store) TxManager() repo.TransactionManager   { return &txManager{store: s} }

func (s *Store) RefreshTokens() repo.RefreshTokenRepository {
	return &refreshTokenRepo{v: s.direct()}
}

// 在庫調整履歴（テスト・確認用）
func (s *Store) Adjustments() []model.InventoryAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.InventoryAdjustment(nil), s.st.adjustments...)
}

type txRepos struct {
	v view
}

func (r *txRepos) Orders() repo.OrderRepository         { return &orderRepo{v: r.v} }
func (r *txRepos) OrderItems() repo.OrderItemRepository { return &orderItemRepo{v: r.v} }
func (r *txRepos) Carts() repo.CartRepository           { return &cartRepo{v: r.v} }
func (r *txRepos) CartItems() repo.CartItemRepository   { return &cartItemRepo{v: r.v} }
func (r *txRepos) Inventory() repo.InventoryRepository  { return &inventoryRepo{v: r.v} }
func (r *txRepos) Products() repo.ProductRepository     { return &productRepo{v: r.v} }
func (r *txRepos) AuditLogs() repo.AuditLogRepository   { return &auditLogRepo{v: r.v} }

type txManager struct {
	store *Store
}

// fn の中でStoreの非txリポジトリを呼ぶとデッドロックする
func (m *txManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	work := m.store.st.clone()
	if err := fn(&txRepos{v: view{store: m.store, tx: work}}); err != nil {
		return err
	}
	m.store.st = work
	return nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

var _ repo.Store = (*Store)(nil)
