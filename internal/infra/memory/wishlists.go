package memory

import (
	"context"
	"sort"

	"storefront/internal/domain/model"
)

type wishlistRepo struct{ v view }

func (r *wishlistRepo) ListProductsByUserID(ctx context.Context, userID string) ([]model.Product, error) {
	var entries []model.Wishlist
	out := []model.Product{}
	err := r.v.do(func(st *state) error {
		for _, w := range st.wishlists {
			if w.UserID == userID {
				entries = append(entries, w)
			}
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
		for _, w := range entries {
			if p, ok := st.products[w.ProductID]; ok {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

func (r *wishlistRepo) Add(ctx context.Context, userID, productID string) error {
	return r.v.do(func(st *state) error {
		for _, w := range st.wishlists {
			if w.UserID == userID && w.ProductID == productID {
				return nil
			}
		}
		w := model.Wishlist{ID: model.NewID(), UserID: userID, ProductID: productID, CreatedAt: r.v.now()}
		st.wishlists[w.ID] = w
		return nil
	})
}

func (r *wishlistRepo) Remove(ctx context.Context, userID, productID string) (bool, error) {
	removed := false
	err := r.v.do(func(st *state) error {
		for id, w := range st.wishlists {
			if w.UserID == userID && w.ProductID == productID {
				delete(st.wishlists, id)
				removed = true
			}
		}
		return nil
	})
	return removed, err
}
