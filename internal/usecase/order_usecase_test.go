package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
	"storefront/internal/testutil"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOrder(t *testing.T, db *gorm.DB, userID int64, status model.OrderStatus, lines ...model.OrderItem) model.Order {
	t.Helper()
	o := model.Order{UserID: userID, Total: decimal.RequireFromString("15.00"), Status: status}
	require.NoError(t, db.Create(&o).Error)
	for _, l := range lines {
		l.OrderID = o.ID
		require.NoError(t, db.Create(&l).Error)
	}
	return o
}

func TestOrderUsecase_ListMyOrders_NewestFirst(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	uc := usecase.NewOrderUsecase(infraRepo.NewTxManagerGorm(db))

	first := seedOrder(t, db, 1, model.OrderStatusCompleted)
	second := seedOrder(t, db, 1, model.OrderStatusPending, model.OrderItem{
		ProductID: 3, ProductNameSnapshot: "Mug", UnitPrice: decimal.RequireFromString("7.5"), Quantity: 2,
	})
	seedOrder(t, db, 2, model.OrderStatusPending)

	outs, err := uc.ListMyOrders(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, second.ID, outs[0].ID)
	assert.Equal(t, first.ID, outs[1].ID)
	require.Len(t, outs[0].Items, 1)
	assert.Equal(t, "Mug", outs[0].Items[0].Name)
	assert.Equal(t, "7.50", outs[0].Items[0].Price.StringFixed(2))
	assert.Equal(t, "Pending", outs[0].Status)
}

func TestOrderUsecase_GetMyOrderDetail_OnlyOwnOrders(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	uc := usecase.NewOrderUsecase(infraRepo.NewTxManagerGorm(db))
	mine := seedOrder(t, db, 1, model.OrderStatusPending)
	theirs := seedOrder(t, db, 2, model.OrderStatusPending)

	out, err := uc.GetMyOrderDetail(context.Background(), 1, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "15.00", out.Total.StringFixed(2))

	_, err = uc.GetMyOrderDetail(context.Background(), 1, theirs.ID)
	assert.Equal(t, 404, httpStatus(t, err))

	_, err = uc.GetMyOrderDetail(context.Background(), 0, mine.ID)
	assert.Equal(t, 401, httpStatus(t, err))
}

// キャンセルは在庫を戻す（実DB）
func TestAdminOrderUsecase_Cancel_RestoresStock_SQLite(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	mug := testutil.SeedProduct(t, db, "Mug", "10.00", 3)
	o := seedOrder(t, db, 1, model.OrderStatusPending, model.OrderItem{
		ProductID: mug.ID, ProductNameSnapshot: "Mug", UnitPrice: decimal.RequireFromString("10"), Quantity: 2,
	})

	uc := usecase.NewAdminOrderUsecase(infraRepo.NewTxManagerGorm(db))
	require.NoError(t, uc.UpdateStatus(context.Background(), 9, o.ID, usecase.AdminUpdateOrderStatusInput{Status: "Canceled"}))

	assert.Equal(t, int64(5), testutil.StockOf(t, db, mug.ID))
	var got model.Order
	require.NoError(t, db.First(&got, o.ID).Error)
	assert.Equal(t, model.OrderStatusCanceled, got.Status)
	assert.Equal(t, int64(1), testutil.Count(t, db, &model.AuditLog{}))

	//終端からは戻せない
	err := uc.UpdateStatus(context.Background(), 9, o.ID, usecase.AdminUpdateOrderStatusInput{Status: "Pending"})
	assert.Equal(t, 400, httpStatus(t, err))
	assert.Equal(t, int64(5), testutil.StockOf(t, db, mug.ID))
}

// 読んだ後に別の管理者がキャンセル済みにしたケースを再現する
type staleOrderTx struct {
	inner repo.TransactionManager
	stale model.Order
}

func (s staleOrderTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return s.inner.WithinTx(ctx, func(r repo.TxRepos) error {
		return fn(staleOrderRepos{TxRepos: r, stale: s.stale})
	})
}

type staleOrderRepos struct {
	repo.TxRepos
	stale model.Order
}

func (r staleOrderRepos) Orders() repo.OrderRepository {
	return staleOrders{OrderRepository: r.TxRepos.Orders(), stale: r.stale}
}

type staleOrders struct {
	repo.OrderRepository
	stale model.Order
}

func (o staleOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return o.stale, nil
}

func TestAdminOrderUsecase_Cancel_StaleRead_DoesNotRestoreTwice(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	mug := testutil.SeedProduct(t, db, "Mug", "10.00", 0)
	o := seedOrder(t, db, 1, model.OrderStatusPending, model.OrderItem{
		ProductID: mug.ID, ProductNameSnapshot: "Mug", UnitPrice: decimal.RequireFromString("10"), Quantity: 3,
	})

	//1人目のキャンセルは通る
	uc := usecase.NewAdminOrderUsecase(infraRepo.NewTxManagerGorm(db))
	require.NoError(t, uc.UpdateStatus(context.Background(), 9, o.ID, usecase.AdminUpdateOrderStatusInput{Status: "Canceled"}))
	assert.Equal(t, int64(3), testutil.StockOf(t, db, mug.ID))

	//2人目はPendingのときに読んでいた
	late := usecase.NewAdminOrderUsecase(staleOrderTx{inner: infraRepo.NewTxManagerGorm(db), stale: o})
	err := late.UpdateStatus(context.Background(), 10, o.ID, usecase.AdminUpdateOrderStatusInput{Status: "Canceled"})
	assert.Equal(t, 409, httpStatus(t, err))

	assert.Equal(t, int64(3), testutil.StockOf(t, db, mug.ID))
	assert.Equal(t, int64(1), testutil.Count(t, db, &model.AuditLog{}))
}
