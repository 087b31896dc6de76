package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 監査ログの保存・取得の約束。
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	//対象ごとの履歴（古い順）
	ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID string) ([]model.AuditLog, error)
}
