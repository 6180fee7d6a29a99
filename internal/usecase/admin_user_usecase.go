package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminUserUsecase struct {
	users     repo.UserRepository
	auditRepo repo.AuditLogRepository
}

func NewAdminUserUsecase(users repo.UserRepository, auditRepo repo.AuditLogRepository) *AdminUserUsecase {
	return &AdminUserUsecase{users: users, auditRepo: auditRepo}
}

type AdminUserOutput struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (u *AdminUserUsecase) ListUsers(ctx context.Context, limit int, offset int) ([]AdminUserOutput, error) {
	if limit < 1 || limit > 100 {
		return []AdminUserOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if offset < 0 {
		return []AdminUserOutput{}, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	users, err := u.users.List(ctx, limit, offset)
	if err != nil {
		return []AdminUserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]AdminUserOutput, 0, len(users))
	for _, usr := range users {
		outs = append(outs, AdminUserOutput{
			ID:          usr.ID,
			Name:        usr.Name,
			Email:       usr.Email,
			Role:        string(usr.Role),
			IsActive:    usr.IsActive,
			LastLoginAt: usr.LastLoginAt,
			CreatedAt:   usr.CreatedAt,
		})
	}
	return outs, nil
}

// 管理者の付与・剥奪。古いトークンの権限が残らないようtoken_versionも上げる
func (u *AdminUserUsecase) ChangeRole(ctx context.Context, actorAdminUserID int64, targetUserID int64, role string) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if targetUserID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newRole := model.Role(strings.ToUpper(strings.TrimSpace(role)))
	if newRole != model.RoleUser && newRole != model.RoleAdmin {
		return NewHTTPError(http.StatusBadRequest, "invalid role")
	}
	//自分の管理者権限は外せない
	if targetUserID == actorAdminUserID && newRole != model.RoleAdmin {
		return NewHTTPError(http.StatusBadRequest, "cannot demote yourself")
	}

	target, err := u.users.FindByID(ctx, targetUserID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if target.Role == newRole {
		return nil
	}

	if err := u.users.SetRole(ctx, targetUserID, newRole); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	before, _ := json.Marshal(map[string]string{"role": string(target.Role)})
	after, _ := json.Marshal(map[string]string{"role": string(newRole)})
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionUpdateUserRole,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   string(before),
		AfterJSON:    string(after),
		CreatedAt:    time.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AdminUserUsecase) ListAuditLogs(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if f.Limit < 1 || f.Limit > 200 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Offset < 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return []model.AuditLog{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}
