package auth

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/repository"
)

type UpdateProfileInput struct {
	UserID int64
	Name   string
	Email  string
	//空なら変更しない
	Password string
}

type ProfileUsecase struct {
	userRepo  repository.UserRepository
	validator InputValidator
	hasher    PasswordHasher
	clock     Clock
}

func NewProfileUsecase(userRepo repository.UserRepository, validator InputValidator, hasher PasswordHasher, clock Clock) *ProfileUsecase {
	return &ProfileUsecase{userRepo: userRepo, validator: validator, hasher: hasher, clock: clock}
}

func (u *ProfileUsecase) Get(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, ErrUnauthorized
	}
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return UserDTO{}, ErrUnauthorized
		}
		return UserDTO{}, err
	}
	if !user.IsActive {
		return UserDTO{}, ErrUserInactive
	}
	return ToUserDTO(user), nil
}

// 名前・メール・パスワード（任意）を更新
func (u *ProfileUsecase) Update(ctx context.Context, in UpdateProfileInput) (UserDTO, error) {
	if in.UserID <= 0 {
		return UserDTO{}, ErrUnauthorized
	}
	if err := u.validator.ValidateProfile(ctx, in.UserID, in.Name, in.Email, in.Password); err != nil {
		return UserDTO{}, err
	}

	user, err := u.userRepo.FindByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return UserDTO{}, ErrUnauthorized
		}
		return UserDTO{}, err
	}

	user.Name = strings.TrimSpace(in.Name)
	user.Email = strings.TrimSpace(in.Email)
	if in.Password != "" {
		hashed, err := u.hasher.Hash(in.Password)
		if err != nil {
			return UserDTO{}, err
		}
		user.PasswordHash = hashed
	}
	user.UpdatedAt = u.clock.Now()

	if err := u.userRepo.Update(ctx, user); err != nil {
		return UserDTO{}, err
	}
	return ToUserDTO(user), nil
}
