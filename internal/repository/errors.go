package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	//一意制約違反
	ErrDuplicate = errors.New("duplicate")

	//条件付き更新で0行（他の更新に先を越された）
	ErrConflict = errors.New("conflict")
)
