package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/testutil"
	"storefront/internal/usecase"
	checkout "storefront/internal/usecase/checkout_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCartUC(t *testing.T) (*usecase.CartUsecase, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return usecase.NewCartUsecase(infraRepo.NewCartGormRepository(db), infraRepo.NewProductGormRepository(db)), db
}

func TestCartUsecase_AddToCart_BuildsSnapshot(t *testing.T) {
	uc, db := newCartUC(t)
	mug := testutil.SeedProduct(t, db, "Mug", "10.00", 5)
	pen := testutil.SeedProduct(t, db, "Pen", "1.25", 5)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: mug.ID, Quantity: 2})
	require.NoError(t, err)
	cart, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: pen.ID, Quantity: 1})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "20.00", cart.Items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "21.25", cart.Total.StringFixed(2))

	//snapshotはそのままチェックアウトで読める
	items := checkout.DecodeSnapshot(cart.Snapshot)
	require.Len(t, items, 2)
	assert.Equal(t, mug.ID, items[0].ProductID)
	assert.Equal(t, int64(2), items[0].Quantity)
	assert.Equal(t, "10.00", items[0].UnitPrice.StringFixed(2))
}

func TestCartUsecase_AddToCart_Rejects(t *testing.T) {
	uc, db := newCartUC(t)
	mug := testutil.SeedProduct(t, db, "Mug", "10.00", 2)
	draft := model.Product{Name: "Draft", Stock: 5}
	require.NoError(t, db.Create(&draft).Error)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: mug.ID, Quantity: 3})
	assert.Equal(t, 409, httpStatus(t, err))
	assertErrContains(t, err, "out of stock or already in your cart")

	_, err = uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: mug.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: mug.ID, Quantity: 1})
	assert.Equal(t, 409, httpStatus(t, err))

	_, err = uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: draft.ID, Quantity: 1})
	assert.Equal(t, 404, httpStatus(t, err))
	_, err = uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: 999, Quantity: 1})
	assert.Equal(t, 404, httpStatus(t, err))

	_, err = uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: mug.ID, Quantity: 0})
	assertErrContains(t, err, "invalid quantity")
	_, err = uc.AddToCart(context.Background(), 0, usecase.AddCartInput{ProductID: mug.ID, Quantity: 1})
	assertErrContains(t, err, "unauthorized")

	assert.Equal(t, int64(1), testutil.Count(t, db, &model.CartItem{}))
}

func TestCartUsecase_GetCart_SkipsHiddenProducts(t *testing.T) {
	uc, db := newCartUC(t)
	mug := testutil.SeedProduct(t, db, "Mug", "10.00", 5)
	pen := testutil.SeedProduct(t, db, "Pen", "1.00", 5)
	for _, pid := range []int64{mug.ID, pen.ID} {
		_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: pid, Quantity: 1})
		require.NoError(t, err)
	}
	require.NoError(t, db.Model(&model.Product{}).Where("id = ?", pen.ID).Update("is_active", false).Error)

	cart, err := uc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, mug.ID, cart.Items[0].ProductID)
	assert.Len(t, cart.Snapshot, 1)

	//他人のカートは見えない
	other, err := uc.GetCart(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, other.Items)
	assert.True(t, other.Total.IsZero())
}

func TestCartUsecase_RemoveFromCart(t *testing.T) {
	uc, db := newCartUC(t)
	mug := testutil.SeedProduct(t, db, "Mug", "10.00", 5)
	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: mug.ID, Quantity: 1})
	require.NoError(t, err)

	cart, err := uc.RemoveFromCart(context.Background(), 1, mug.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = uc.RemoveFromCart(context.Background(), 1, mug.ID)
	assert.Equal(t, 404, httpStatus(t, err))
}
