package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/foodapi/internal/metrics"
	"github.com/hitoshi/foodapi/internal/middleware"
	"github.com/hitoshi/foodapi/internal/model"
)

// ActivityLog は操作ログの記録と閲覧のインターフェース。
type ActivityLog interface {
	middleware.ActivityRecorder
	ActivityLister
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector
	// MetricsHandler がnilの場合 /metrics は公開しない。
	MetricsHandler http.Handler
	HealthChecker  HealthChecker
	Activity       ActivityLog

	// サービス
	AuthService         AuthServiceInterface
	ResetService        ResetServiceInterface
	UserService         UserServiceInterface
	ManagerService      ManagerServiceInterface
	CatalogService      CatalogServiceInterface
	CartService         CartServiceInterface
	OrderService        OrderServiceInterface
	AddressService      AddressServiceInterface
	NotificationService NotificationServiceInterface
}

var (
	rolesAdmin        = []string{string(model.RoleAdmin)}
	rolesCatalogWrite = []string{string(model.RoleAdmin), string(model.RoleManager)}
	rolesStaff        = []string{string(model.RoleAdmin), string(model.RoleManager), string(model.RoleOfficer)}
)

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// 全体のミドルウェアスタックの実行順序:
//
//	RealIP → Logging → Recovery → Metrics → SecurityHeaders → CORS
//
// 認証が必要なグループでは Auth → RateLimit(General) → Activity の順に適用する。
// ログインとパスワードリセットはクライアントIP単位の認証用レート制限のみを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Noop{}
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// サブルーターにも引き継がせるため、ルート定義より前に設定する
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	authH := NewAuthHandler(deps.AuthService, deps.ResetService)
	userH := NewUserHandler(deps.UserService)
	managerH := NewManagerHandler(deps.ManagerService)
	catalogH := NewCatalogHandler(deps.CatalogService)
	cartH := NewCartHandler(deps.CartService)
	orderH := NewOrderHandler(deps.OrderService)
	addressH := NewAddressHandler(deps.AddressService)
	notificationH := NewNotificationHandler(deps.NotificationService, deps.Activity)

	rl := deps.RateLimiter
	activity := middleware.NewActivityMiddleware(deps.Activity)

	// protected は指定ロールの認証・レート制限・操作ログを適用したグループを作る。
	// rolesが空の場合は認証済みであればロールを問わない。
	protected := func(r chi.Router, roles []string, routes func(r chi.Router)) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, roles...))
			r.Use(rl.GeneralMiddleware())
			r.Use(activity)
			routes(r)
		})
	}

	// --- 認証不要のルート ---
	r.Get("/", Welcome)
	r.Get("/health", Health(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		// ログイン・パスワードリセット
		r.Group(func(r chi.Router) {
			r.Use(rl.AuthMiddleware())
			r.Post("/users/login", authH.Login)
			r.Post("/managers/login", authH.ManagerLogin)
			r.Post("/users/password/request-reset", authH.RequestReset)
			r.Post("/users/password/verify-otp", authH.VerifyOTP)
			r.Post("/users/password/reset", authH.ResetPassword)
		})

		// メニューの閲覧
		r.Group(func(r chi.Router) {
			r.Use(rl.GeneralMiddleware())
			r.Get("/categories", catalogH.ListCategories)
			r.Get("/categories/{id}", catalogH.GetCategory)
			r.Get("/categories/{categoryId}/foods", catalogH.ListFoodsByCategory)
			r.Get("/foods", catalogH.ListFoods)
			r.Get("/foods/{id}", catalogH.GetFood)
		})

		// --- 認証済み（ロール不問） ---
		protected(r, nil, func(r chi.Router) {
			r.Post("/users/password/update", userH.UpdatePassword)
			r.Post("/users/{id}/profile-image", userH.UploadProfileImage)

			r.With(ownUser).Post("/users/{userId}/cart", cartH.Create)
			r.With(ownUser).Get("/users/{userId}/cart", cartH.GetByUser)
			r.Delete("/carts/{id}", cartH.Delete)
			r.Get("/carts/{cartId}/items", cartH.ListItems)
			r.Post("/carts/{cartId}/items", cartH.AddItem)
			r.Delete("/carts/{cartId}/items", cartH.Clear)
			r.Patch("/cart-items/{id}", cartH.UpdateItemQuantity)
			r.Delete("/cart-items/{id}", cartH.DeleteItem)

			r.Post("/orders", orderH.Create)
			r.Get("/orders/{id}", orderH.Get)
			r.With(ownUser).Get("/users/{userId}/orders", orderH.ListByUser)
			r.Get("/orders/{orderId}/items", orderH.ListItems)
			r.Post("/orders/{orderId}/items", orderH.AddItem)
			r.Get("/orders/{orderId}/payments", orderH.ListPayments)
			r.Post("/orders/{orderId}/payments", orderH.CreatePayment)
			r.Get("/orders/{orderId}/delivery", orderH.GetDelivery)

			r.Get("/addresses/{id}", addressH.Get)
			r.Patch("/addresses/{id}", addressH.Update)
			r.Delete("/addresses/{id}", addressH.Delete)
			r.With(ownUser).Get("/users/{userId}/addresses", addressH.ListByUser)
			r.With(ownUser).Post("/users/{userId}/addresses", addressH.Create)

			r.With(ownUser).Get("/users/{userId}/notifications", notificationH.ListByUser)
			r.Patch("/notifications/{id}/read", notificationH.MarkRead)
		})

		// --- admin ---
		protected(r, rolesAdmin, func(r chi.Router) {
			r.Get("/users", userH.List)
			r.Post("/users", userH.Create)
			r.Get("/users/{id}", userH.Get)
			r.Patch("/users/{id}", userH.Update)
			r.Delete("/users/{id}", userH.Delete)
			r.Get("/users/email/{email}", userH.GetByEmail)
			r.Get("/users/username/{username}", userH.GetByUsername)

			r.Get("/managers", managerH.List)
			r.Post("/managers", managerH.Create)
			r.Get("/managers/{id}", managerH.Get)
			r.Patch("/managers/{id}", managerH.Update)
			r.Delete("/managers/{id}", managerH.Delete)

			r.Get("/addresses", addressH.List)
			r.Get("/logs", notificationH.ListLogs)
		})

		// --- admin | manager: メニューの変更 ---
		protected(r, rolesCatalogWrite, func(r chi.Router) {
			r.Post("/categories", catalogH.CreateCategory)
			r.Patch("/categories/{id}", catalogH.UpdateCategory)
			r.Delete("/categories/{id}", catalogH.DeleteCategory)
			r.Post("/foods", catalogH.CreateFood)
			r.Patch("/foods/{id}", catalogH.UpdateFood)
			r.Delete("/foods/{id}", catalogH.DeleteFood)
		})

		// --- admin | manager | officer: 注文処理 ---
		protected(r, rolesStaff, func(r chi.Router) {
			r.Patch("/orders/{id}/status", orderH.UpdateStatus)
			r.Patch("/payments/{id}/status", orderH.UpdatePaymentStatus)
			r.Post("/orders/{orderId}/delivery", orderH.AssignDelivery)
			r.Patch("/delivery/{id}/status", orderH.UpdateDeliveryStatus)
			r.Post("/users/{userId}/notifications", notificationH.Create)
		})
	})

	return r
}
