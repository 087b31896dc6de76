package model

import (
	"time"

	"gorm.io/gorm"
)

type Wishlist struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_wishlists_user_product" json:"userId"`
	ProductID string    `gorm:"type:uuid;not null;uniqueIndex:idx_wishlists_user_product" json:"productId"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (w *Wishlist) BeforeCreate(tx *gorm.DB) error {
	ensureID(&w.ID)
	return nil
}
