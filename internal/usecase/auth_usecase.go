package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// JWTのclaim名。middlewareもこれで読む
const (
	ClaimSubject      = "sub"
	ClaimRole         = "role"
	ClaimTokenVersion = "tv"
)

type UserDTO struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Phone string     `json:"phone,omitempty"`
	Role  model.Role `json:"role"`

	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type AccessTokenDTO struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
}

type LoginOutput struct {
	User         UserDTO        `json:"user"`
	Token        AccessTokenDTO `json:"token"`
	RefreshToken string         `json:"refreshToken"`
}

type RefreshInput struct {
	RefreshToken string
	UserAgent    string
}

type RefreshOutput struct {
	Token        AccessTokenDTO `json:"token"`
	RefreshToken string         `json:"refreshToken"`
}

type ProfileInput struct {
	Name  string
	Phone string
}

type AuthUsecase struct {
	users         repo.UserRepository
	refreshTokens repo.RefreshTokenRepository
	jwtSecret     []byte
	tokenTTL      time.Duration
	refreshTTL    time.Duration
	clock         Clock
	log           *zap.Logger
}

func NewAuthUsecase(
	users repo.UserRepository,
	refreshTokens repo.RefreshTokenRepository,
	jwtSecret string,
	tokenTTL time.Duration,
	refreshTTL time.Duration,
	log *zap.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:         users,
		refreshTokens: refreshTokens,
		jwtSecret:     []byte(jwtSecret),
		tokenTTL:      tokenTTL,
		refreshTTL:    refreshTTL,
		clock:         SystemClock{},
		log:           log,
	}
}

// 新規登録は常にCUSTOMER。ADMINは別経路で作る
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserDTO, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if len([]rune(name)) < 2 {
		return UserDTO{}, validationError("Name must be at least 2 characters")
	}
	if email == "" || !strings.Contains(email, "@") {
		return UserDTO{}, validationError("Invalid email address")
	}
	if len(in.Password) < 6 {
		return UserDTO{}, validationError("Password must be at least 6 characters")
	}

	//平文は保存しない
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Error("register: hash password", zap.Error(err))
		return UserDTO{}, internalError()
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleCustomer,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return UserDTO{}, NewError(ErrConflict, "Email already registered")
		}
		u.log.Error("register: create user", zap.Error(err))
		return UserDTO{}, internalError()
	}

	u.log.Info("user registered", zap.String("user_id", user.ID))
	return toUserDTO(user), nil
}

// メール違いとパスワード違いは同じ401にする
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return LoginOutput{}, validationError("Email and password are required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return LoginOutput{}, NewError(ErrUnauthorized, "Invalid email or password")
	}
	if err != nil {
		u.log.Error("login: find user", zap.Error(err))
		return LoginOutput{}, internalError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return LoginOutput{}, NewError(ErrUnauthorized, "Invalid email or password")
	}

	token, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		u.log.Error("login: sign token", zap.Error(err))
		return LoginOutput{}, internalError()
	}
	refresh, err := u.issueRefreshToken(ctx, user.ID, in.UserAgent)
	if err != nil {
		u.log.Error("login: issue refresh token", zap.Error(err))
		return LoginOutput{}, internalError()
	}

	return LoginOutput{
		User: toUserDTO(user),
		Token: AccessTokenDTO{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		},
		RefreshToken: refresh,
	}, nil
}

// Refresh はリフレッシュトークンを使用済みにして、アクセストークンと新しいリフレッシュトークンを返す。
// 使用済みのトークンが再び来たら盗まれたとみなし、そのユーザーのトークンを全部失効させる
func (u *AuthUsecase) Refresh(ctx context.Context, in RefreshInput) (RefreshOutput, error) {
	plain := strings.TrimSpace(in.RefreshToken)
	if plain == "" {
		return RefreshOutput{}, validationError("Refresh token is required")
	}

	rt, err := u.refreshTokens.FindByTokenHash(ctx, hashToken(plain))
	if errors.Is(err, repo.ErrNotFound) {
		return RefreshOutput{}, errInvalidRefresh()
	}
	if err != nil {
		u.log.Error("refresh: find token", zap.Error(err))
		return RefreshOutput{}, internalError()
	}

	now := u.clock.Now()
	if rt.UsedAt != nil {
		u.log.Warn("refresh token reused", zap.String("user_id", rt.UserID))
		u.revokeRefreshTokens(ctx, rt.UserID, now)
		return RefreshOutput{}, errInvalidRefresh()
	}
	if !rt.Usable(now) {
		return RefreshOutput{}, errInvalidRefresh()
	}
	if ua := clipUserAgent(in.UserAgent); rt.UserAgent != "" && ua != "" && rt.UserAgent != ua {
		u.log.Warn("refresh token user agent mismatch", zap.String("user_id", rt.UserID))
		u.revokeRefreshTokens(ctx, rt.UserID, now)
		return RefreshOutput{}, errInvalidRefresh()
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return RefreshOutput{}, NewError(ErrUnauthorized, "User not found")
	}
	if err != nil {
		u.log.Error("refresh: find user", zap.String("user_id", rt.UserID), zap.Error(err))
		return RefreshOutput{}, internalError()
	}

	//同時に同じトークンが来たら片方だけ通す
	if err := u.refreshTokens.MarkUsed(ctx, rt.ID, now); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return RefreshOutput{}, errInvalidRefresh()
		}
		u.log.Error("refresh: mark used", zap.String("user_id", rt.UserID), zap.Error(err))
		return RefreshOutput{}, internalError()
	}

	token, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		u.log.Error("refresh: sign token", zap.Error(err))
		return RefreshOutput{}, internalError()
	}
	refresh, err := u.issueRefreshToken(ctx, user.ID, in.UserAgent)
	if err != nil {
		u.log.Error("refresh: issue refresh token", zap.Error(err))
		return RefreshOutput{}, internalError()
	}

	return RefreshOutput{
		Token: AccessTokenDTO{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		},
		RefreshToken: refresh,
	}, nil
}

func errInvalidRefresh() error {
	return NewError(ErrUnauthorized, "Invalid or expired refresh token")
}

// token_versionを上げてアクセストークンを、リフレッシュトークンは失効で全部無効にする
func (u *AuthUsecase) Logout(ctx context.Context, p Principal) error {
	if p.UserID == "" {
		return NewError(ErrUnauthorized, "Unauthorized")
	}
	if err := u.users.IncrementTokenVersion(ctx, p.UserID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(ErrUnauthorized, "Unauthorized")
		}
		u.log.Error("logout", zap.String("user_id", p.UserID), zap.Error(err))
		return internalError()
	}
	if _, err := u.refreshTokens.RevokeAllByUserID(ctx, p.UserID, u.clock.Now()); err != nil {
		u.log.Error("logout: revoke refresh tokens", zap.String("user_id", p.UserID), zap.Error(err))
		return internalError()
	}
	return nil
}

// 失敗してもログだけ（呼び出し側はどのみち401を返す）
func (u *AuthUsecase) revokeRefreshTokens(ctx context.Context, userID string, now time.Time) {
	if _, err := u.refreshTokens.RevokeAllByUserID(ctx, userID, now); err != nil {
		u.log.Error("revoke refresh tokens", zap.String("user_id", userID), zap.Error(err))
	}
}

func (u *AuthUsecase) Me(ctx context.Context, p Principal) (UserDTO, error) {
	user, err := u.currentUser(ctx, p)
	if err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func (u *AuthUsecase) UpdateProfile(ctx context.Context, p Principal, in ProfileInput) (UserDTO, error) {
	name := strings.TrimSpace(in.Name)
	if len([]rune(name)) < 2 {
		return UserDTO{}, validationError("Name must be at least 2 characters")
	}

	user, err := u.currentUser(ctx, p)
	if err != nil {
		return UserDTO{}, err
	}

	user.Name = name
	user.Phone = strings.TrimSpace(in.Phone)
	if err := u.users.Update(ctx, user); err != nil {
		u.log.Error("update profile", zap.String("user_id", p.UserID), zap.Error(err))
		return UserDTO{}, internalError()
	}
	return toUserDTO(user), nil
}

func (u *AuthUsecase) currentUser(ctx context.Context, p Principal) (*model.User, error) {
	if p.UserID == "" {
		return nil, NewError(ErrUnauthorized, "Unauthorized")
	}
	user, err := u.users.FindByID(ctx, p.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, NewError(ErrNotFound, "User not found")
	}
	if err != nil {
		u.log.Error("find user", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, internalError()
	}
	return user, nil
}

// HS256のアクセストークン。tvで強制ログアウトを判定する
func (u *AuthUsecase) issueAccessToken(user *model.User) (string, int, error) {
	now := u.clock.Now()
	claims := jwt.MapClaims{
		ClaimSubject:      user.ID,
		ClaimRole:         string(user.Role),
		ClaimTokenVersion: user.TokenVersion,
		"iat":             now.Unix(),
		"exp":             now.Add(u.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(u.jwtSecret)
	if err != nil {
		return "", 0, err
	}
	return signed, int(u.tokenTTL.Seconds()), nil
}

// 平文はクライアントにだけ返し、DBにはsha256を置く
func (u *AuthUsecase) issueRefreshToken(ctx context.Context, userID string, userAgent string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(b)

	err := u.refreshTokens.Create(ctx, &model.RefreshToken{
		UserID:    userID,
		TokenHash: hashToken(plain),
		UserAgent: clipUserAgent(userAgent),
		ExpiresAt: u.clock.Now().Add(u.refreshTTL),
	})
	if err != nil {
		return "", err
	}
	return plain, nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// カラム長（255）に合わせる
func clipUserAgent(ua string) string {
	if len(ua) > 255 {
		return ua[:255]
	}
	return ua
}
