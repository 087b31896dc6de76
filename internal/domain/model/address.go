package model

import (
	"time"

	"gorm.io/gorm"
)

// 配送先住所
type Address struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;not null;index" json:"userId"`

	//宛名
	FullName string `gorm:"type:varchar(255);not null" json:"fullName"`

	//電話番号
	Phone string `gorm:"type:varchar(30);not null" json:"phone"`

	AddressLine1 string `gorm:"type:varchar(255);not null" json:"addressLine1"`
	AddressLine2 string `gorm:"type:varchar(255)" json:"addressLine2"`
	City         string `gorm:"type:varchar(100);not null" json:"city"`
	State        string `gorm:"type:varchar(100);not null" json:"state"`

	//郵便番号（6桁）
	Pincode string `gorm:"type:varchar(6);not null" json:"pincode"`

	//ユーザーごとにtrueは1件だけ
	IsDefault bool `gorm:"not null;default:false" json:"isDefault"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
