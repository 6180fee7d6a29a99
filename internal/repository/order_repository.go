package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 管理者用の一覧条件
type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status model.OrderStatus
	UserID *int64
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// SELECT ... FOR UPDATE（状態遷移の前に使う）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	// 新しい順にlimit件
	ListByUserID(ctx context.Context, userID int64, limit int) ([]model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	// fromのときだけtoへ。もうfromでなければErrConflict、行が無ければErrNotFound
	TransitionStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error

	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
