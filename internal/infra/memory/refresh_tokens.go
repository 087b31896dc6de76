package memory

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type refreshTokenRepo struct{ v view }

func (r *refreshTokenRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	return r.v.do(func(st *state) error {
		for _, t := range st.refreshTokens {
			if t.TokenHash == token.TokenHash {
				return repo.ErrDuplicate
			}
		}
		if token.ID == "" {
			token.ID = model.NewID()
		}
		token.CreatedAt = r.v.now()
		st.refreshTokens[token.ID] = *token
		return nil
	})
}

func (r *refreshTokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var out model.RefreshToken
	err := r.v.do(func(st *state) error {
		for _, t := range st.refreshTokens {
			if t.TokenHash == tokenHash {
				out = t
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (r *refreshTokenRepo) MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	return r.v.do(func(st *state) error {
		t, ok := st.refreshTokens[tokenID]
		if !ok || t.UsedAt != nil || t.RevokedAt != nil {
			return repo.ErrConflict
		}
		t.UsedAt = &usedAt
		st.refreshTokens[tokenID] = t
		return nil
	})
}

func (r *refreshTokenRepo) RevokeAllByUserID(ctx context.Context, userID string, revokedAt time.Time) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		for id, t := range st.refreshTokens {
			if t.UserID == userID && t.RevokedAt == nil {
				at := revokedAt
				t.RevokedAt = &at
				st.refreshTokens[id] = t
				n++
			}
		}
		return nil
	})
	return n, err
}
