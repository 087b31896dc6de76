package memory

import (
	"context"
	"sort"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type addressRepo struct{ v view }

func unsetDefaults(st *state, userID string) {
	for id, a := range st.addresses {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			st.addresses[id] = a
		}
	}
}

func (r *addressRepo) Create(ctx context.Context, address model.Address) (model.Address, error) {
	err := r.v.do(func(st *state) error {
		if address.IsDefault {
			unsetDefaults(st, address.UserID)
		}
		if address.ID == "" {
			address.ID = model.NewID()
		}
		now := r.v.now()
		address.CreatedAt, address.UpdatedAt = now, now
		st.addresses[address.ID] = address
		return nil
	})
	if err != nil {
		return model.Address{}, err
	}
	return address, nil
}

func (r *addressRepo) ListByUserID(ctx context.Context, userID string) ([]model.Address, error) {
	out := []model.Address{}
	err := r.v.do(func(st *state) error {
		for _, a := range st.addresses {
			if a.UserID == userID {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r *addressRepo) FindByID(ctx context.Context, addressID string) (model.Address, error) {
	var out model.Address
	err := r.v.do(func(st *state) error {
		a, ok := st.addresses[addressID]
		if !ok {
			return repo.ErrNotFound
		}
		out = a
		return nil
	})
	return out, err
}

func (r *addressRepo) Update(ctx context.Context, address model.Address) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.addresses[address.ID]
		if !ok || cur.UserID != address.UserID {
			return repo.ErrNotFound
		}
		if address.IsDefault {
			unsetDefaults(st, address.UserID)
		}
		address.CreatedAt = cur.CreatedAt
		address.UpdatedAt = r.v.now()
		st.addresses[address.ID] = address
		return nil
	})
}

func (r *addressRepo) Delete(ctx context.Context, addressID string) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.addresses[addressID]; !ok {
			return repo.ErrNotFound
		}
		delete(st.addresses, addressID)
		return nil
	})
}

func (r *addressRepo) IsReferencedByOrders(ctx context.Context, addressID string) (bool, error) {
	found := false
	err := r.v.do(func(st *state) error {
		for _, o := range st.orders {
			if o.AddressID == addressID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *addressRepo) SetDefault(ctx context.Context, userID, addressID string) error {
	return r.v.do(func(st *state) error {
		a, ok := st.addresses[addressID]
		if !ok || a.UserID != userID {
			return repo.ErrNotFound
		}
		unsetDefaults(st, userID)
		a.IsDefault = true
		a.UpdatedAt = r.v.now()
		st.addresses[addressID] = a
		return nil
	})
}
