package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫が足りるときだけ減算。足りなければfalse
	DecrementStockIfEnough(ctx context.Context, variantID string, qty int64) (bool, error)

	// stock+deltaが0以上のときだけ反映。反映後の在庫を返す
	AdjustStock(ctx context.Context, variantID string, delta int64) (int64, bool, error)

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
