package server

import (
	"log/slog"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/events"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/repository"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"
	checkout "storefront/internal/usecase/checkout_usecase"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// 外部リソース（DB / セッション / イベント送信）
type Deps struct {
	Config     config.Config
	DB         *gorm.DB
	Sessions   repository.SessionRepository
	Publisher  checkout.OrderPublisher
	BcryptCost int
}

// Repository -> Usecase -> Handler を組み立ててルートまで登録したecho
func NewApp(logger *slog.Logger, d Deps) *echo.Echo {
	if d.Publisher == nil {
		d.Publisher = events.NoopOrderPublisher{}
	}
	if d.BcryptCost == 0 {
		d.BcryptCost = 12
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(d.DB)
	productRepo := infraRepo.NewProductGormRepository(d.DB)
	cartRepo := infraRepo.NewCartGormRepository(d.DB)
	auditRepo := infraRepo.NewAuditLogGormRepository(d.DB)
	txm := infraRepo.NewTxManagerGorm(d.DB)

	//usecaseに渡す部品
	clock := auth.SystemClock{}
	hasher := auth.NewBcryptPasswordHasher(d.BcryptCost)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(d.Config.JWTSecret, d.Config.AccessTokenTTL)
	authValidator := validator.NewAuthValidator(userRepo)

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, authValidator, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, d.Sessions, authValidator, verifier, issuer, auth.UUIDGenerator{}, clock)
	logoutUC := auth.NewLogoutUsecase(userRepo, d.Sessions)
	profileUC := auth.NewProfileUsecase(userRepo, authValidator, hasher, clock)

	productUC := usecase.NewProductUsecase(productRepo, txm)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txm)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm)
	adminUserUC := usecase.NewAdminUserUsecase(userRepo, auditRepo)
	placeOrderUC := checkout.NewPlaceOrderUsecase(txm, validator.NewPaymentValidator(checkout.SystemClock{}), d.Publisher, checkout.SystemClock{})

	//Handler生成
	handlers := Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC, logoutUC, profileUC, d.Config.SessionTTL, d.Config.CookieSecure),
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Checkout:     handler.NewCheckoutHandler(placeOrderUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminUser:    handler.NewAdminUserHandler(adminUserUC),
	}

	e := New(logger)
	RegisterRoutes(e, handlers, d.Config, d.Sessions, userRepo)
	return e
}
