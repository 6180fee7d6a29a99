package server

import (
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// 画面ごとのhandler
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Cart         *handler.CartHandler
	Checkout     *handler.CheckoutHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminProduct *handler.AdminProductHandler
	AdminUser    *handler.AdminUserHandler
}

// 認証の組み合わせ：公開 / 任意認証 / ログイン必須 / 管理者
func RegisterRoutes(e *echo.Echo, h Handlers, cfg config.Config, sessions repository.SessionRepository, users repository.UserRepository) {
	optional := []echo.MiddlewareFunc{
		middleware.Authenticate(cfg, sessions, false),
		middleware.TokenVersionGuard(users),
	}
	protected := []echo.MiddlewareFunc{
		middleware.Authenticate(cfg, sessions, true),
		middleware.TokenVersionGuard(users),
	}
	admin := append(append([]echo.MiddlewareFunc{}, protected...), middleware.AdminRoleGuard())

	h.Auth.RegisterRoutes(e, protected...)
	h.Product.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, protected...)
	h.Checkout.RegisterRoutes(e, optional...)
	h.Order.RegisterRoutes(e, protected...)

	h.AdminOrder.RegisterRoutes(e, admin...)
	h.AdminProduct.RegisterRoutes(e, admin...)
	h.AdminUser.RegisterRoutes(e, admin...)
}
