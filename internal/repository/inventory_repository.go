package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type InventoryRepository interface {
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// stock >= qty のときだけ減らす。足りなければErrInsufficientStock、商品が無ければErrNotFound
	DecreaseStock(ctx context.Context, productID int64, qty int64) error

	// キャンセル時の戻し
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
