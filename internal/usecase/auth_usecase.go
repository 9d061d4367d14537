package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"rentalapp/internal/config"
	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// accesstokenの有効期限
const accessTokenTTL = 15 * time.Minute

// refreshtokenの有効期限
const refreshTokenTTL = 30 * 24 * time.Hour

// 紹介成立時の特典額
const referralRewardAmount = 100

type AuthUsecase struct {
	cfg    config.Config
	users  repo.UserRepository
	rtRepo repo.RefreshTokenRepository
	tx     repo.TransactionManager
}

func NewAuthUsecase(
	cfg config.Config,
	users repo.UserRepository,
	rtRepo repo.RefreshTokenRepository,
	tx repo.TransactionManager,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:    cfg,
		users:  users,
		rtRepo: rtRepo,
		tx:     tx,
	}
}

type SignupInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	PhoneNumber  string `json:"phone_number"`
	ReferralCode string `json:"referral_code"`
}

type TokenOutput struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type AuthOutput struct {
	User  model.User  `json:"user"`
	Token TokenOutput `json:"token"`
}

func (u *AuthUsecase) Signup(ctx context.Context, in SignupInput, userAgent string) (AuthOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthOutput{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(in.Password) < 8 {
		return AuthOutput{}, NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}
	if strings.TrimSpace(in.FullName) == "" {
		return AuthOutput{}, NewHTTPError(http.StatusBadRequest, "full_name is required")
	}

	//adminは自己登録できない
	role := model.Role(in.Role)
	switch role {
	case model.RoleBuyer, model.RoleSeller, model.RoleDeliveryPartner:
	default:
		return AuthOutput{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return AuthOutput{}, NewHTTPError(http.StatusConflict, "email already registered")
	} else if !errors.Is(err, repo.ErrNotFound) {
		return AuthOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	//紹介コードを使った登録なら紹介者を先に解決しておく
	var referrer *model.User
	if code := strings.TrimSpace(in.ReferralCode); code != "" {
		r, err := u.users.FindByReferralCode(ctx, code)
		if errors.Is(err, repo.ErrNotFound) {
			return AuthOutput{}, NewHTTPError(http.StatusBadRequest, "invalid referral code")
		}
		if err != nil {
			return AuthOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		referrer = &r
	}

	user := model.User{
		Email:        email,
		PasswordHash: string(pwHash),
		FullName:     strings.TrimSpace(in.FullName),
		Role:         role,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		ReferralCode: newReferralCode(),
		KYCStatus:    model.KYCStatusNone,
		TokenVersion: 0,
		IsActive:     true,
	}

	//user作成・紹介記録・通知outboxは同一トランザクション
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Users().Create(ctx, &user); err != nil {
			return NewHTTPError(http.StatusConflict, "email already registered")
		}

		if referrer != nil {
			//自分のコードでは登録できない（emailで先に弾かれるが念のため）
			if referrer.ID == user.ID {
				return NewHTTPError(http.StatusBadRequest, "invalid referral code")
			}
			ref := model.Referral{
				ReferrerID:   referrer.ID,
				ReferredID:   &user.ID,
				ReferralCode: referrer.ReferralCode,
				RewardAmount: referralRewardAmount,
				Status:       model.ReferralStatusPending,
			}
			if err := r.Referrals().Create(ctx, &ref); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		n := model.Notification{
			UserID:           user.ID,
			EventType:        model.EventAccountCreated,
			PlaceholdersJSON: mustPlaceholders(map[string]string{"name": user.FullName}),
			Status:           model.NotificationPending,
		}
		if err := r.Notifications().Create(ctx, &n); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return AuthOutput{}, err
		}
		return AuthOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	token, err := u.issueTokens(ctx, &user, userAgent)
	if err != nil {
		return AuthOutput{}, err
	}
	return AuthOutput{User: user, Token: token}, nil
}

type SigninInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (u *AuthUsecase) Signin(ctx context.Context, in SigninInput, userAgent string) (AuthOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return AuthOutput{}, NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		//emailの存在は漏らさない
		return AuthOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return AuthOutput{}, NewHTTPError(http.StatusForbidden, "account is deactivated")
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return AuthOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	//last_login更新
	now := time.Now()
	_ = u.users.UpdateFields(ctx, user.ID, map[string]interface{}{"last_login_at": now})
	user.LastLoginAt = &now

	token, err := u.issueTokens(ctx, &user, userAgent)
	if err != nil {
		return AuthOutput{}, err
	}
	return AuthOutput{User: user, Token: token}, nil
}

// refresh tokenのローテーション。使用済みの再提示はreplay扱いで全失効。
func (u *AuthUsecase) Refresh(ctx context.Context, refreshPlain string, userAgent string) (TokenOutput, error) {
	if refreshPlain == "" {
		return TokenOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	rt, err := u.rtRepo.FindByHash(ctx, hashToken(refreshPlain))
	if err != nil {
		return TokenOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	now := time.Now()

	//期限切れ
	if rt.ExpiresAt.Before(now) {
		return TokenOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	//revoked
	if rt.RevokedAt != nil {
		return TokenOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	//used済みが来たら replay → 全失効
	if rt.UsedAt != nil {
		_ = u.rtRepo.RevokeAllByUser(ctx, rt.UserID, now)
		return TokenOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil {
		return TokenOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !user.IsActive {
		return TokenOutput{}, NewHTTPError(http.StatusForbidden, "account is deactivated")
	}

	//旧tokenをusedにする
	if err := u.rtRepo.MarkUsed(ctx, rt.ID, now); err != nil {
		_ = u.rtRepo.RevokeAllByUser(ctx, rt.UserID, now)
		return TokenOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	return u.issueTokens(ctx, &user, userAgent)
}

func (u *AuthUsecase) Signout(ctx context.Context, refreshPlain string) error {
	if refreshPlain == "" {
		return NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}
	rt, err := u.rtRepo.FindByHash(ctx, hashToken(refreshPlain))
	if errors.Is(err, repo.ErrNotFound) {
		//すでに失効済みでも成功扱い
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.rtRepo.Revoke(ctx, rt.ID, time.Now()); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return user, nil
}

type UpdateProfileInput struct {
	FullName           *string `json:"full_name"`
	PhoneNumber        *string `json:"phone_number"`
	EmailNotifications *bool   `json:"email_notifications"`
}

func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (model.User, error) {
	if userID <= 0 {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	fields := map[string]interface{}{}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return model.User{}, NewHTTPError(http.StatusBadRequest, "full_name must not be empty")
		}
		fields["full_name"] = name
	}
	if in.PhoneNumber != nil {
		fields["phone_number"] = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.EmailNotifications != nil {
		fields["email_notifications"] = *in.EmailNotifications
	}
	if len(fields) == 0 {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "no fields to update")
	}

	if err := u.users.UpdateFields(ctx, userID, fields); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return user, nil
}

// 管理者の強制ログアウト。token_versionを進めて既存JWTを無効化する。
func (u *AuthUsecase) ForceLogout(ctx context.Context, targetUserID int64) (int, error) {
	if targetUserID <= 0 {
		return 0, NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, NewHTTPError(http.StatusNotFound, "not found")
		}
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.rtRepo.RevokeAllByUser(ctx, targetUserID, time.Now()); err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return user.TokenVersion, nil
}

// jwt発行 + refresh発行（DBにはhashのみ保存）
func (u *AuthUsecase) issueTokens(ctx context.Context, user *model.User, userAgent string) (TokenOutput, error) {
	now := time.Now()
	exp := now.Add(accessTokenTTL)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return TokenOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	refreshPlain, refreshHash, err := newRandomTokenAndHash()
	if err != nil {
		return TokenOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	rt := model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: refreshHash,
		UserAgent: userAgent,
		ExpiresAt: now.Add(refreshTokenTTL),
	}
	if err := u.rtRepo.Create(ctx, &rt); err != nil {
		return TokenOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return TokenOutput{
		AccessToken:  signed,
		RefreshToken: refreshPlain,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}, nil
}

// 紹介コードの採番。衝突はuniqueIndexが最終的に守る。
func newReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "YAF-" + strings.ToUpper(raw[:8])
}

// refresh token生成（平文 + DB保存hash）
func newRandomTokenAndHash() (plain string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	plain = base64.RawURLEncoding.EncodeToString(b)
	hash = hashToken(plain)
	return plain, hash, nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
