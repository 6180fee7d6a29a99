package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCanceled  OrderStatus = "Canceled"
)

// 終端ステータスからは動かせない
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCanceled:
		return OrderStatus(s), true
	}
	return "", false
}

type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index;uniqueIndex:idx_orders_user_idempotency" json:"user_id"`
	//チェックアウト時に送られた合計
	Total  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Status OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	//キー無しの注文はNULL（重複可）
	IdempotencyKey *string   `gorm:"type:varchar(255);uniqueIndex:idx_orders_user_idempotency" json:"-"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}
