package checkout_test

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/testutil"
	checkout "storefront/internal/usecase/checkout_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// 行ロックが本当に効くのはPostgresだけなのでコンテナで確認する
func TestPlaceOrder_Postgres_ConcurrentBuyersNeverOversell(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	uc, pub := newPlaceOrder(t, db)
	mug := testutil.SeedProduct(t, db, "Mug", "10.00", 3)

	const buyers = 10
	users := make([]model.User, buyers)
	for i := range users {
		users[i] = testutil.SeedUser(t, db, fmt.Sprintf("buyer%d@example.com", i), model.RoleUser)
	}

	results := make([]checkout.Result, buyers)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range users {
		g.Go(func() error {
			results[i] = uc.Execute(ctx, checkout.Request{
				UserID:  users[i].ID,
				Records: []string{record(mug, "10.00", 1)},
				Total:   "10.00",
				Payment: validPayment(),
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, r := range results {
		if r.State == checkout.StateSucceeded {
			succeeded++
			continue
		}
		assert.ErrorIs(t, r.Err, checkout.ErrInsufficientStock)
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, int64(0), testutil.StockOf(t, db, mug.ID))
	assert.Equal(t, int64(3), testutil.Count(t, db, &model.Order{}))
	assert.Equal(t, 3, pub.count())
}

func TestPlaceOrder_Postgres_SameKeyConcurrently(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	uc, _ := newPlaceOrder(t, db)
	user := testutil.SeedUser(t, db, "alice@example.com", model.RoleUser)
	mug := testutil.SeedProduct(t, db, "Mug", "10.00", 10)

	const attempts = 4
	results := make([]checkout.Result, attempts)
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			results[i] = uc.Execute(context.Background(), checkout.Request{
				UserID:         user.ID,
				Records:        []string{record(mug, "10.00", 1)},
				Total:          "10.00",
				Payment:        validPayment(),
				IdempotencyKey: "double-click",
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var orderID int64
	for _, r := range results {
		require.Nil(t, r.Err)
		assert.Equal(t, checkout.StateSucceeded, r.State)
		if orderID == 0 {
			orderID = r.OrderID
		}
		assert.Equal(t, orderID, r.OrderID)
	}
	assert.Equal(t, int64(1), testutil.Count(t, db, &model.Order{}))
	assert.Equal(t, int64(9), testutil.StockOf(t, db, mug.ID))
}
