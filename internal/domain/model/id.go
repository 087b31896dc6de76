package model

import "github.com/google/uuid"

// 主キーはUUID文字列
func NewID() string {
	return uuid.NewString()
}

func ensureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}
