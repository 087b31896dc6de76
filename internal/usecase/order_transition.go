package usecase

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type transitionRequest struct {
	ActorUserID    string
	OrderID        string
	To             model.OrderStatus
	TrackingNumber *string
	//読み込んだ注文に対する追加チェック（所有者・顧客キャンセル条件など）
	Check func(o model.Order) error
}

type transitionResult struct {
	From  model.OrderStatus
	Order model.Order
}

// 注文を読み、遷移表で検証し、現在ステータス条件付きで1行更新して監査ログを書く。
// 呼び出し側のトランザクション内で使う
func applyTransition(ctx context.Context, r repo.TxRepos, req transitionRequest) (transitionResult, error) {
	o, err := r.Orders().FindByID(ctx, req.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return transitionResult{}, NewError(ErrOrderNotFound, "Order not found")
	}
	if err != nil {
		return transitionResult{}, err
	}
	if req.Check != nil {
		if err := req.Check(o); err != nil {
			return transitionResult{}, err
		}
	}

	if !o.Status.CanTransitionTo(req.To) {
		return transitionResult{}, NewError(ErrInvalidTransition,
			fmt.Sprintf("Cannot transition from %s to %s", o.Status, req.To))
	}

	if err := r.Orders().UpdateStatus(ctx, o.ID, o.Status, req.To, req.TrackingNumber); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return transitionResult{}, NewError(ErrConflict, "Order was updated by another request, please retry")
		}
		return transitionResult{}, err
	}

	updated, err := r.Orders().FindByID(ctx, o.ID)
	if err != nil {
		return transitionResult{}, err
	}

	before, err := snapshotJSON(statusSnapshot{Status: o.Status, TrackingNumber: o.TrackingNumber})
	if err != nil {
		return transitionResult{}, err
	}
	after, err := snapshotJSON(statusSnapshot{Status: updated.Status, TrackingNumber: updated.TrackingNumber})
	if err != nil {
		return transitionResult{}, err
	}
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  req.ActorUserID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   o.ID,
		BeforeJSON:   before,
		AfterJSON:    after,
	}); err != nil {
		return transitionResult{}, err
	}

	return transitionResult{From: o.Status, Order: updated}, nil
}

type statusSnapshot struct {
	Status         model.OrderStatus `json:"status"`
	TrackingNumber *string           `json:"trackingNumber,omitempty"`
}
