package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// リフレッシュトークンの保存・照合・失効
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	//未使用かつ未失効のときだけused_atを入れる。負けたらErrConflict
	MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error
	//ユーザーの有効なトークンを全部失効させ、件数を返す
	RevokeAllByUserID(ctx context.Context, userID string, revokedAt time.Time) (int64, error)
}
