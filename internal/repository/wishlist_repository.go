package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type WishlistRepository interface {
	//新しい順
	ListProductsByUserID(ctx context.Context, userID string) ([]model.Product, error)
	Add(ctx context.Context, userID, productID string) error
	//削除した行があればtrue
	Remove(ctx context.Context, userID, productID string) (bool, error)
}
