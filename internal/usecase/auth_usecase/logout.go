package auth

import (
	"context"
	"errors"

	"storefront/internal/repository"
)

type LogoutUsecase struct {
	userRepo repository.UserRepository
	sessions repository.SessionRepository
}

func NewLogoutUsecase(userRepo repository.UserRepository, sessions repository.SessionRepository) *LogoutUsecase {
	return &LogoutUsecase{userRepo: userRepo, sessions: sessions}
}

// セッションを消してtoken_versionを+1（他の端末のトークンも無効）
func (u *LogoutUsecase) Execute(ctx context.Context, userID int64, sessionID string) error {
	if userID <= 0 {
		return ErrUnauthorized
	}

	if sessionID != "" {
		if err := u.sessions.Destroy(ctx, sessionID); err != nil {
			return err
		}
	}

	if err := u.userRepo.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	return nil
}
