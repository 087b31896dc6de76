package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type AddressUsecase struct {
	addresses repo.AddressRepository
	log       *zap.Logger
}

func NewAddressUsecase(addresses repo.AddressRepository, log *zap.Logger) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, log: log}
}

// 入力の形式チェックはhandler側のvalidatorで済んでいる前提
type AddressInput struct {
	FullName     string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Pincode      string
	IsDefault    bool
}

func (in AddressInput) apply(a *model.Address) {
	a.FullName = strings.TrimSpace(in.FullName)
	a.Phone = strings.TrimSpace(in.Phone)
	a.AddressLine1 = strings.TrimSpace(in.AddressLine1)
	a.AddressLine2 = strings.TrimSpace(in.AddressLine2)
	a.City = strings.TrimSpace(in.City)
	a.State = strings.TrimSpace(in.State)
	a.Pincode = strings.TrimSpace(in.Pincode)
	a.IsDefault = in.IsDefault
}

func (u *AddressUsecase) List(ctx context.Context, p Principal) ([]model.Address, error) {
	if p.UserID == "" {
		return nil, NewError(ErrUnauthorized, "Unauthorized")
	}
	list, err := u.addresses.ListByUserID(ctx, p.UserID)
	if err != nil {
		u.log.Error("list addresses", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, internalError()
	}
	return list, nil
}

func (u *AddressUsecase) Create(ctx context.Context, p Principal, in AddressInput) (model.Address, error) {
	if p.UserID == "" {
		return model.Address{}, NewError(ErrUnauthorized, "Unauthorized")
	}

	a := model.Address{UserID: p.UserID}
	in.apply(&a)

	created, err := u.addresses.Create(ctx, a)
	if err != nil {
		u.log.Error("create address", zap.String("user_id", p.UserID), zap.Error(err))
		return model.Address{}, internalError()
	}
	return created, nil
}

func (u *AddressUsecase) Update(ctx context.Context, p Principal, addressID string, in AddressInput) (model.Address, error) {
	a, err := u.owned(ctx, p, addressID)
	if err != nil {
		return model.Address{}, err
	}

	in.apply(&a)
	if err := u.addresses.Update(ctx, a); err != nil {
		u.log.Error("update address", zap.String("address_id", addressID), zap.Error(err))
		return model.Address{}, internalError()
	}

	updated, err := u.addresses.FindByID(ctx, addressID)
	if err != nil {
		u.log.Error("reload address", zap.String("address_id", addressID), zap.Error(err))
		return model.Address{}, internalError()
	}
	return updated, nil
}

// 注文に使われた住所は消せない（注文の配送先が消えるため）
func (u *AddressUsecase) Delete(ctx context.Context, p Principal, addressID string) error {
	if _, err := u.owned(ctx, p, addressID); err != nil {
		return err
	}

	used, err := u.addresses.IsReferencedByOrders(ctx, addressID)
	if err != nil {
		u.log.Error("address order check", zap.String("address_id", addressID), zap.Error(err))
		return internalError()
	}
	if used {
		return validationError("Cannot delete address linked to orders")
	}

	if err := u.addresses.Delete(ctx, addressID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(ErrNotFound, "Address not found")
		}
		u.log.Error("delete address", zap.String("address_id", addressID), zap.Error(err))
		return internalError()
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, p Principal, addressID string) error {
	if _, err := u.owned(ctx, p, addressID); err != nil {
		return err
	}
	if err := u.addresses.SetDefault(ctx, p.UserID, addressID); err != nil {
		u.log.Error("set default address", zap.String("address_id", addressID), zap.Error(err))
		return internalError()
	}
	return nil
}

// 他人の住所は404（存在を教えない）
func (u *AddressUsecase) owned(ctx context.Context, p Principal, addressID string) (model.Address, error) {
	if p.UserID == "" {
		return model.Address{}, NewError(ErrUnauthorized, "Unauthorized")
	}
	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && a.UserID != p.UserID) {
		return model.Address{}, NewError(ErrNotFound, "Address not found")
	}
	if err != nil {
		u.log.Error("find address", zap.String("address_id", addressID), zap.Error(err))
		return model.Address{}, internalError()
	}
	return a, nil
}
