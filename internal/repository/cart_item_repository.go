package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	//variant・商品価格を結合した明細（追加順）
	ListLinesByCartID(ctx context.Context, cartID string) ([]model.CartLine, error)
	// 同一variantは数量をプラス。更新後の明細を返す
	UpsertByCartAndVariant(ctx context.Context, cartID string, variantID string, addQty int64) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID string, qty int64) error
	DeleteByID(ctx context.Context, cartItemID string) error
	FindByID(ctx context.Context, cartItemID string) (model.CartItem, error)
	IsOwnedByUser(ctx context.Context, cartItemID string, userID string) (bool, error)
}
