package validator

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"storefront/internal/repository"
	auth "storefront/internal/usecase/auth_usecase"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrWeakPassword       = errors.New("weak password")

	// emailが既に使用済み
	ErrEmailAlreadyUsed = errors.New("email already used")
)

// パスワード最低文字数
const minPasswordLen = 8

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) auth.InputValidator {
	return &authValidator{users: users}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, name string, email string, password string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	// email重複チェック（DBが必要）
	_, err := v.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err == nil {
		return ErrEmailAlreadyUsed
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrInvalidInput
	}
	return validateEmail(email)
}

// プロフィール更新。パスワードは空なら変更なし
func (v *authValidator) ValidateProfile(ctx context.Context, userID int64, name string, email string, password string) error {
	if userID <= 0 || strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if password != "" {
		if err := validatePassword(password); err != nil {
			return err
		}
	}

	// 自分以外が使っているemailは不可
	u, err := v.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err == nil && u.ID != userID {
		return ErrEmailAlreadyUsed
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func validateEmail(email string) error {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return ErrInvalidInput
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return ErrInvalidEmailFormat
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	if isWeakPassword(password) {
		return ErrWeakPassword
	}
	return nil
}

// よくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password123":  {},
		"123456789012": {},
		"1234567890":   {},
		"12345678":     {},
		"qwerty123":    {},
		"qwertyuiop":   {},
		"letmein123":   {},
		"admin123":     {},
		"iloveyou":     {},
	}

	_, ok := weak[normalized]
	return ok
}
