package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// ユーザーごとのカート行
type CartRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	Add(ctx context.Context, item model.CartItem) error
	RemoveProduct(ctx context.Context, userID int64, productID int64) error
	//注文確定後にカートを空にする
	ClearByUserID(ctx context.Context, userID int64) error
}
