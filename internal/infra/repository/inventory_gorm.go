package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64) error {
	return r.updateStock(ctx, productID, newStock)
}

// UPDATE ... WHERE stock >= qty。同時に減らしても負にならない
func (r *InventoryGormRepository) DecreaseStock(ctx context.Context, productID int64, qty int64) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	ok, err := r.exists(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return repo.ErrNotFound
	}
	return repo.ErrInsufficientStock
}

func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	return r.updateStock(ctx, productID, gorm.Expr("stock + ?", qty))
}

func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.db.WithContext(ctx).Create(&adj).Error
}

// 論理削除された商品も在庫は動かす（キャンセルの戻しなど）
func (r *InventoryGormRepository) updateStock(ctx context.Context, productID int64, value interface{}) error {
	res := r.db.WithContext(ctx).Unscoped().Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InventoryGormRepository) exists(ctx context.Context, productID int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
