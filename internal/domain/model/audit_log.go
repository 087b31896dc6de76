package model

import (
	"time"

	"gorm.io/gorm"
)

type AuditAction string

const (
	//在庫を調整した操作
	AuditActionAdjustStock AuditAction = "ADJUST_STOCK"
	//注文ステータスを更新した操作
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//商品を登録した操作
	AuditActionCreateProduct AuditAction = "CREATE_PRODUCT"
)

type AuditResourceType string

const (
	AuditResourceVariant AuditResourceType = "variant"
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceProduct AuditResourceType = "product"
)

// 管理者操作ログ。
// 誰がどの対象をどう変えたかをJSONで残す
type AuditLog struct {
	ID           string            `gorm:"type:uuid;primaryKey" json:"id"`
	ActorUserID  string            `gorm:"type:uuid;not null;index" json:"actorUserId"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resourceType"`
	ResourceID   string            `gorm:"type:uuid;not null;index" json:"resourceId"`
	BeforeJSON   string            `gorm:"type:text" json:"beforeJson"`
	AfterJSON    string            `gorm:"type:text" json:"afterJson"`
	CreatedAt    time.Time         `gorm:"not null;autoCreateTime;index" json:"createdAt"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
