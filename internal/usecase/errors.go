package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	//400 住所が無い・他人の住所
	ErrInvalidAddress = errors.New("invalid address")
	//400 カートが無い・空
	ErrEmptyCart = errors.New("empty cart")
	//400 在庫不足
	ErrInsufficientStock = errors.New("insufficient stock")
	//409 注文トランザクションの失敗
	ErrOrderPlacementFailed = errors.New("order placement failed")
	//404
	ErrOrderNotFound = errors.New("order not found")
	//400 遷移できないステータス
	ErrInvalidTransition = errors.New("invalid transition")
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//403 権限
	ErrForbidden = errors.New("forbidden")
	//400 入力不正
	ErrValidation = errors.New("validation error")
	//404
	ErrNotFound = errors.New("not found")
	//409 競合
	ErrConflict = errors.New("conflict")
	//409 同じユーザーのチェックアウトが進行中
	ErrCheckoutInProgress = errors.New("checkout in progress")
	//500
	ErrInternal = errors.New("internal error")
)

var statusByKind = map[error]int{
	ErrInvalidAddress:       http.StatusBadRequest,
	ErrEmptyCart:            http.StatusBadRequest,
	ErrInsufficientStock:    http.StatusBadRequest,
	ErrInvalidTransition:    http.StatusBadRequest,
	ErrValidation:           http.StatusBadRequest,
	ErrUnauthorized:         http.StatusUnauthorized,
	ErrForbidden:            http.StatusForbidden,
	ErrOrderNotFound:        http.StatusNotFound,
	ErrNotFound:             http.StatusNotFound,
	ErrOrderPlacementFailed: http.StatusConflict,
	ErrConflict:             http.StatusConflict,
	ErrCheckoutInProgress:   http.StatusConflict,
	ErrInternal:             http.StatusInternalServerError,
}

// handlerはStatusとMessageをそのまま返す。
// Kindでerrors.Isできる
type HTTPError struct {
	Status  int
	Message string
	Kind    error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Kind
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

// Kindからステータスを決める
func NewError(kind error, message string) error {
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &HTTPError{
		Status:  status,
		Message: message,
		Kind:    kind,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func validationError(message string) error {
	return NewError(ErrValidation, message)
}

func internalError() error {
	return NewError(ErrInternal, "Internal server error")
}
