package memory

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type userRepo struct{ v view }

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.v.do(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, user.Email) {
				return repo.ErrDuplicate
			}
		}
		if user.ID == "" {
			user.ID = model.NewID()
		}
		if user.Role == "" {
			user.Role = model.RoleCustomer
		}
		now := r.v.now()
		user.CreatedAt, user.UpdatedAt = now, now
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) FindByID(ctx context.Context, userID string) (*model.User, error) {
	var out *model.User
	err := r.v.do(func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return repo.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var out *model.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				u := u
				out = &u
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (r *userRepo) FindByIDs(ctx context.Context, userIDs []string) ([]model.User, error) {
	out := []model.User{}
	err := r.v.do(func(st *state) error {
		for _, id := range userIDs {
			if u, ok := st.users[id]; ok {
				out = append(out, u)
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.v.do(func(st *state) error {
		u, ok := st.users[user.ID]
		if !ok {
			return repo.ErrNotFound
		}
		u.Name = user.Name
		u.Phone = user.Phone
		u.UpdatedAt = r.v.now()
		st.users[u.ID] = u
		return nil
	})
}

func (r *userRepo) IncrementTokenVersion(ctx context.Context, userID string) error {
	return r.v.do(func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return repo.ErrNotFound
		}
		u.TokenVersion++
		st.users[userID] = u
		return nil
	})
}
