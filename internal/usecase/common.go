package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/domain/model"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("storefront/usecase")

// 認証済みの呼び出し元（middlewareがJWTから作る）
type Principal struct {
	UserID string
	Role   model.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// コミット後のイベント送信。kafkaのProducerが満たす
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// ユーザー単位のチェックアウトロック。redis実装がある
type CheckoutLocker interface {
	Acquire(ctx context.Context, userID string) (release func(context.Context) error, ok bool, err error)
}

// 1ページの件数
const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

func normalizePage(page, limit, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"totalPages"`
}

func newPage[T any](items []T, total int64, page, limit int) Page[T] {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit, Pages: pages}
}

// 監査ログのbefore/after用
func snapshotJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("audit snapshot: %w", err)
	}
	return string(b), nil
}
