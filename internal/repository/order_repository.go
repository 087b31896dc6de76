package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	//注文IDかメールアドレスの部分一致
	Search string
}

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (model.Order, error)
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	// 現在のステータスがfromのときだけ更新。0行ならErrConflict
	// trackingNumberがnilなら既存値を残す
	UpdateStatus(ctx context.Context, orderID string, from, to model.OrderStatus, trackingNumber *string) error
}
