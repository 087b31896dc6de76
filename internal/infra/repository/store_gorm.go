package repository

import (
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

// GormStore はtx外で使うrepoを束ねる
type GormStore struct {
	db   *gorm.DB
	cart *CartGormRepository
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, cart: NewCartGormRepository(db)}
}

func (s *GormStore) Users() repo.UserRepository           { return NewUserGormRepository(s.db) }
func (s *GormStore) Addresses() repo.AddressRepository    { return NewAddressGormRepository(s.db) }
func (s *GormStore) Products() repo.ProductRepository     { return NewProductGormRepository(s.db) }
func (s *GormStore) Carts() repo.CartRepository           { return s.cart }
func (s *GormStore) CartItems() repo.CartItemRepository   { return s.cart }
func (s *GormStore) Orders() repo.OrderRepository         { return NewOrderGormRepository(s.db) }
func (s *GormStore) OrderItems() repo.OrderItemRepository { return NewOrderItemGormRepository(s.db) }
func (s *GormStore) AuditLogs() repo.AuditLogRepository   { return NewAuditLogGormRepository(s.db) }
func (s *GormStore) Wishlists() repo.WishlistRepository   { return NewWishlistGormRepository(s.db) }
func (s *GormStore) RefreshTokens() repo.RefreshTokenRepository {
	return NewRefreshTokenGormRepository(s.db)
}
func (s *GormStore) TxManager() repo.TransactionManager   { return NewTxManagerGorm(s.db) }

var _ repo.Store = (*GormStore)(nil)
