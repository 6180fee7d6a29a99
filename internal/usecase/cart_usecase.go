package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	checkout "storefront/internal/usecase/checkout_usecase"

	"github.com/shopspring/decimal"
)

// 在庫不足・重複追加のときの文言
const msgCannotAddToCart = "This product is out of stock or already in your cart."

// CartUsecase は /cart の業務ロジックです。
type CartUsecase struct {
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
}

func NewCartUsecase(cartRepo repo.CartRepository, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// priceは現在の商品価格
type CartItemResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Image     string          `json:"image"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// snapshotはそのまま /checkout の products[] に送る
type CartResponse struct {
	Items    []CartItemResponse `json:"items"`
	Total    decimal.Decimal    `json:"total"`
	Snapshot []string           `json:"snapshot"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.buildCartResponse(ctx, userID)
}

// 同じ商品は1行だけ。数量変更は削除して入れ直す
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}

	rows, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	for _, row := range rows {
		if row.ProductID == in.ProductID {
			return CartResponse{}, NewHTTPError(http.StatusConflict, msgCannotAddToCart)
		}
	}
	if p.Stock < in.Quantity {
		return CartResponse{}, NewHTTPError(http.StatusConflict, msgCannotAddToCart)
	}

	if err := u.cartRepo.Add(ctx, model.CartItem{
		UserID:    userID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
	}); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	if err := u.cartRepo.RemoveProduct(ctx, userID, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, userID)
}

// 非公開・削除済みの商品は表示しない
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	rows, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	respItems := make([]CartItemResponse, 0, len(rows))
	snap := make([]checkout.CartItem, 0, len(rows))

	for _, row := range rows {
		p, err := u.productRepo.FindByID(ctx, row.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			continue
		}

		respItems = append(respItems, CartItemResponse{
			ProductID: row.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  row.Quantity,
			Image:     p.Image,
			Subtotal:  p.Price.Mul(decimal.NewFromInt(row.Quantity)),
		})
		snap = append(snap, checkout.CartItem{
			ProductID: row.ProductID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  row.Quantity,
			ImageRef:  p.Image,
		})
	}

	return CartResponse{
		Items:    respItems,
		Total:    checkout.Subtotal(snap),
		Snapshot: checkout.EncodeKeyed(snap),
	}, nil
}
