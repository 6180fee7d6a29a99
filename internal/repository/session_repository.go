package repository

import (
	"context"
	"time"
)

// サーバー側セッションに持つ値
type Session struct {
	UserID       int64     `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	TokenVersion int       `json:"token_version"`
	CreatedAt    time.Time `json:"created_at"`
}

// セッションの保存先（redis）
type SessionRepository interface {
	Create(ctx context.Context, sessionID string, s Session) error
	//無い・期限切れはErrNotFound
	Get(ctx context.Context, sessionID string) (Session, error)
	Destroy(ctx context.Context, sessionID string) error
}
