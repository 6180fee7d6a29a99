package testutil

import (
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// テストごとに別のin-memory DB。接続は1本（Txは直列になる）
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func SeedProduct(t testing.TB, gdb *gorm.DB, name string, price string, stock int64) model.Product {
	t.Helper()

	p := model.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, gdb.Create(&p).Error)
	return p
}

func SeedUser(t testing.TB, gdb *gorm.DB, email string, role model.Role) model.User {
	t.Helper()

	now := time.Now()
	u := model.User{
		Name:         "user " + email,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

func StockOf(t testing.TB, gdb *gorm.DB, productID int64) int64 {
	t.Helper()

	var p model.Product
	require.NoError(t, gdb.Unscoped().First(&p, productID).Error)
	return p.Stock
}

func Count(t testing.TB, gdb *gorm.DB, m interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, gdb.Model(m).Count(&n).Error)
	return n
}
