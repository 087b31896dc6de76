package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 住所(Address)を保存・取得する窓口
type AddressRepository interface {
	//IsDefault=trueなら同じユーザーの他の住所のデフォルトを外す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//デフォルトが先頭、その後は新しい順
	ListByUserID(ctx context.Context, userID string) ([]model.Address, error)

	FindByID(ctx context.Context, addressID string) (model.Address, error)

	//IsDefault=trueならCreateと同じ
	Update(ctx context.Context, address model.Address) error

	Delete(ctx context.Context, addressID string) error

	//注文から参照されているか
	IsReferencedByOrders(ctx context.Context, addressID string) (bool, error)

	//デフォルト住所の切り替え
	SetDefault(ctx context.Context, userID, addressID string) error
}
