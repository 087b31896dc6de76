package model

import (
	"time"

	"gorm.io/gorm"
)

// variant単位の在庫調整履歴
type InventoryAdjustment struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	VariantID   string    `gorm:"type:uuid;not null;index" json:"variantId"`
	AdminUserID string    `gorm:"type:uuid;not null;index" json:"adminUserId"`
	Delta       int64     `gorm:"not null" json:"delta"`
	StockAfter  int64     `gorm:"not null" json:"stockAfter"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (a *InventoryAdjustment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
