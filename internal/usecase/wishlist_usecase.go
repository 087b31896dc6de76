package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type WishlistUsecase struct {
	wishlists repo.WishlistRepository
	products  repo.ProductRepository
	log       *zap.Logger
}

func NewWishlistUsecase(wishlists repo.WishlistRepository, products repo.ProductRepository, log *zap.Logger) *WishlistUsecase {
	return &WishlistUsecase{wishlists: wishlists, products: products, log: log}
}

func (u *WishlistUsecase) List(ctx context.Context, p Principal) ([]model.Product, error) {
	if p.UserID == "" {
		return nil, NewError(ErrUnauthorized, "Unauthorized")
	}
	items, err := u.wishlists.ListProductsByUserID(ctx, p.UserID)
	if err != nil {
		u.log.Error("list wishlist", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, internalError()
	}
	return items, nil
}

// Toggle は登録済みなら外し、未登録なら追加する。
// 戻り値は操作後に登録されているかどうか
func (u *WishlistUsecase) Toggle(ctx context.Context, p Principal, productID string) (bool, error) {
	if p.UserID == "" {
		return false, NewError(ErrUnauthorized, "Unauthorized")
	}
	if productID == "" {
		return false, validationError("Product ID is required")
	}

	removed, err := u.wishlists.Remove(ctx, p.UserID, productID)
	if err != nil {
		u.log.Error("toggle wishlist", zap.String("product_id", productID), zap.Error(err))
		return false, internalError()
	}
	if removed {
		return false, nil
	}

	if _, err := u.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, NewError(ErrNotFound, "Product not found")
		}
		u.log.Error("toggle wishlist", zap.String("product_id", productID), zap.Error(err))
		return false, internalError()
	}

	if err := u.wishlists.Add(ctx, p.UserID, productID); err != nil {
		u.log.Error("toggle wishlist", zap.String("product_id", productID), zap.Error(err))
		return false, internalError()
	}
	return true, nil
}

// 未登録でもエラーにしない
func (u *WishlistUsecase) Remove(ctx context.Context, p Principal, productID string) error {
	if p.UserID == "" {
		return NewError(ErrUnauthorized, "Unauthorized")
	}
	if productID == "" {
		return validationError("Product ID is required")
	}
	if _, err := u.wishlists.Remove(ctx, p.UserID, productID); err != nil {
		u.log.Error("remove wishlist", zap.String("product_id", productID), zap.Error(err))
		return internalError()
	}
	return nil
}
