package auth

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/repository"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string
	Password string
}

type JwtAccessToken struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

// handlerがJSONにして返す
type LoginOutput struct {
	User  UserDTO        `json:"user"`
	Token JwtAccessToken `json:"token"`
}

// handlerがCookieに詰めるために必要な値
type LoginSideEffect struct {
	SessionID string
}

type LoginUsecase struct {
	userRepo  repository.UserRepository
	sessions  repository.SessionRepository
	validator InputValidator
	verifier  PasswordVerifier
	issuer    AccessTokenIssuer
	idGen     IDGenerator
	clock     Clock
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	sessions repository.SessionRepository,
	validator InputValidator,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	idGen IDGenerator,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo:  userRepo,
		sessions:  sessions,
		validator: validator,
		verifier:  verifier,
		issuer:    issuer,
		idGen:     idGen,
		clock:     clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, LoginSideEffect, error) {
	var out LoginOutput
	var side LoginSideEffect

	if err := u.validator.ValidateLogin(ctx, in.Email, in.Password); err != nil {
		return out, side, err
	}

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return out, side, ErrInvalidCredentials
		}
		return out, side, err
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return out, side, ErrUserInactive
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return out, side, ErrInvalidCredentials
	}

	//AccessToken発行
	now := u.clock.Now()
	accessToken, accessExp, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return out, side, err
	}

	//サーバー側セッション（cookie用）
	sessionID := u.idGen.NewID()
	if err := u.sessions.Create(ctx, sessionID, repository.Session{
		UserID:       user.ID,
		DisplayName:  user.Name,
		Role:         string(user.Role),
		TokenVersion: user.TokenVersion,
		CreatedAt:    now,
	}); err != nil {
		return out, side, err
	}

	//最終ログイン時刻更新
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		return out, side, err
	}

	out.User = ToUserDTO(user)
	out.Token = JwtAccessToken{
		AccessToken:  accessToken,
		ExpiresIn:    int(accessExp.Sub(now).Seconds()),
		TokenVersion: user.TokenVersion,
	}

	side.SessionID = sessionID
	return out, side, nil
}
