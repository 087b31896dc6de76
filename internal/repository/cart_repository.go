package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateByUserID(ctx context.Context, userID string) (model.Cart, error)
	FindByUserID(ctx context.Context, userID string) (model.Cart, error)
	//トランザクション内で使う。コミットまで同じカートの他のチェックアウトを待たせる
	LockByUserID(ctx context.Context, userID string) (model.Cart, error)
	//明細を全削除（カート自体は残す）。消した件数を返す
	ClearItems(ctx context.Context, cartID string) (int64, error)
}
