package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/foodapi/internal/activity"
	"github.com/hitoshi/foodapi/internal/address"
	"github.com/hitoshi/foodapi/internal/auth"
	"github.com/hitoshi/foodapi/internal/cart"
	"github.com/hitoshi/foodapi/internal/catalog"
	"github.com/hitoshi/foodapi/internal/config"
	"github.com/hitoshi/foodapi/internal/database"
	"github.com/hitoshi/foodapi/internal/handler"
	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/logger"
	"github.com/hitoshi/foodapi/internal/mailer"
	"github.com/hitoshi/foodapi/internal/manager"
	"github.com/hitoshi/foodapi/internal/metrics"
	"github.com/hitoshi/foodapi/internal/middleware"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/notification"
	"github.com/hitoshi/foodapi/internal/order"
	"github.com/hitoshi/foodapi/internal/password"
	"github.com/hitoshi/foodapi/internal/repository"
	"github.com/hitoshi/foodapi/internal/reset"
	"github.com/hitoshi/foodapi/internal/security"
	"github.com/hitoshi/foodapi/internal/storage"
	"github.com/hitoshi/foodapi/internal/token"
	"github.com/hitoshi/foodapi/internal/user"
	"github.com/hitoshi/foodapi/internal/worker/cleanup"
)

// dotEnvPath は起動時に読み込む.envファイルのパス。
const dotEnvPath = ".env"

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .envを環境変数に取り込む（既存の環境変数が優先）
	if err := config.LoadDotEnv(dotEnvPath); err != nil {
		return nil, err
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("app_env", cfg.AppEnv),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandPurgeResets:
		return runPurgeResets(cfg)
	case CommandBootstrapAdmin:
		return runBootstrapAdmin(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")
	return db, nil
}

// newUserService はユーザーサービスを構成する。imagesはnilでもよい。
func newUserService(cfg *config.Config, db *sql.DB, images user.ImageStore) *user.Service {
	return user.NewService(
		repository.NewPostgresUserRepo(db),
		password.NewHasher(password.DefaultParams()),
		images,
		user.Config{PasswordMinLength: cfg.PasswordMinLength},
	)
}

// newImageStore はMinIOの設定がある場合のみプロフィール画像ストアを返す。
// 未設定の場合はnilインターフェースを返し、アップロードはエラーになる。
func newImageStore(ctx context.Context, cfg *config.Config) (user.ImageStore, error) {
	if !cfg.MinIOEnabled() {
		slog.Warn("minio is not configured, profile image upload is disabled")
		return nil, nil
	}
	store, err := storage.NewProfileImageStore(ctx, storage.Options{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
		PublicURL: cfg.MinIOPublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize profile image store: %w", err)
	}
	return store, nil
}

// newResetSender はPostmarkの設定がある場合はメール送信、無い場合はログ出力のSenderを返す。
func newResetSender(cfg *config.Config) mailer.Sender {
	if cfg.PostmarkEnabled() {
		return mailer.NewPostmarkSender(cfg.PostmarkServerToken, cfg.MailFrom)
	}
	return mailer.LogSender{}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	managerRepo := repository.NewPostgresManagerRepo(db)
	categoryRepo := repository.NewPostgresCategoryRepo(db)
	foodRepo := repository.NewPostgresFoodRepo(db)
	cartRepo := repository.NewPostgresCartRepo(db)
	cartItemRepo := repository.NewPostgresCartItemRepo(db)
	orderRepo := repository.NewPostgresOrderRepo(db)
	orderItemRepo := repository.NewPostgresOrderItemRepo(db)
	paymentRepo := repository.NewPostgresPaymentRepo(db)
	deliveryRepo := repository.NewPostgresDeliveryRepo(db)
	addressRepo := repository.NewPostgresAddressRepo(db)
	notificationRepo := repository.NewPostgresNotificationRepo(db)
	activityRepo := repository.NewPostgresActivityLogRepo(db)
	resetRepo := repository.NewPostgresResetRepo(db)

	// 3. 横断的な依存（メトリクス・トークン・サニタイザ・外部ストレージ）
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	tokens := token.NewIssuer([]byte(cfg.JWTSecret), cfg.JWTTTL, cfg.JWTIssuer)
	hasher := password.NewHasher(password.DefaultParams())
	textSanitizer := security.NewTextSanitizer()
	descSanitizer := security.NewDescriptionSanitizer()

	images, err := newImageStore(context.Background(), cfg)
	if err != nil {
		return err
	}

	// 4. ドメインサービスの初期化
	userService := newUserService(cfg, db, images)
	authService := auth.NewService(userRepo, managerRepo, hasher, tokens, collector)
	resetService := reset.NewService(userRepo, resetRepo, userService, newResetSender(cfg), collector, reset.Config{
		DefaultTTL:  time.Duration(cfg.ResetTTLMinutes) * time.Minute,
		Development: cfg.IsDevelopment(),
	})
	managerService := manager.NewService(managerRepo, hasher, manager.Config{PasswordMinLength: cfg.PasswordMinLength})
	catalogService := catalog.NewService(categoryRepo, foodRepo, textSanitizer, descSanitizer)
	cartService := cart.NewService(cartRepo, cartItemRepo, userRepo, foodRepo)
	orderService := order.NewService(order.Repositories{
		Orders:     orderRepo,
		Items:      orderItemRepo,
		Payments:   paymentRepo,
		Deliveries: deliveryRepo,
		Users:      userRepo,
		Addresses:  addressRepo,
		Foods:      foodRepo,
	})
	addressService := address.NewService(addressRepo, userRepo, textSanitizer)
	notificationService := notification.NewService(notificationRepo, userRepo, textSanitizer)

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth))
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		TokenVerifier:     tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(registry),
		HealthChecker:     db,
		Activity:          activity.NewRecorder(activityRepo),

		AuthService:         authService,
		ResetService:        resetService,
		UserService:         userService,
		ManagerService:      managerService,
		CatalogService:      catalogService,
		CartService:         cartService,
		OrderService:        orderService,
		AddressService:      addressService,
		NotificationService: notificationService,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runPurgeResets は保持期間を過ぎた使用済み・期限切れのリセットコードを1回だけ削除する。
func runPurgeResets(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	job := cleanup.NewCleanupJob(db, slog.Default())
	job.RetentionDays = cfg.ResetRetentionDays
	if _, err := job.Run(ctx); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	return nil
}

// runBootstrapAdmin はBOOTSTRAP_ADMIN_*の値から管理者ユーザーを作成する。
func runBootstrapAdmin(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return bootstrapAdmin(context.Background(), repository.NewPostgresUserRepo(db), newUserService(cfg, db, nil), cfg)
}

// usernameFinder はユーザー名でユーザーを検索する。見つからない場合は(nil, nil)。
type usernameFinder interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// userCreator は検証付きでユーザーを作成する。
type userCreator interface {
	Create(ctx context.Context, f input.Fields) (*model.User, error)
}

// bootstrapAdmin は管理者ユーザーを作成する。同名のユーザーが既に存在する場合は何もしない。
func bootstrapAdmin(ctx context.Context, users usernameFinder, creator userCreator, cfg *config.Config) error {
	var missing []string
	if cfg.BootstrapAdminUsername == "" {
		missing = append(missing, "BOOTSTRAP_ADMIN_USERNAME")
	}
	if cfg.BootstrapAdminEmail == "" {
		missing = append(missing, "BOOTSTRAP_ADMIN_EMAIL")
	}
	if cfg.BootstrapAdminPassword == "" {
		missing = append(missing, "BOOTSTRAP_ADMIN_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %v", missing)
	}

	existing, err := users.FindByUsername(ctx, cfg.BootstrapAdminUsername)
	if err != nil {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}
	if existing != nil {
		slog.Info("admin user already exists, skipping bootstrap",
			slog.Int64("user_id", existing.ID),
			slog.String("username", existing.Username),
		)
		return nil
	}

	u, err := creator.Create(ctx, input.Fields{
		"role":     string(model.RoleAdmin),
		"username": cfg.BootstrapAdminUsername,
		"email":    cfg.BootstrapAdminEmail,
		"password": cfg.BootstrapAdminPassword,
	})
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("invalid bootstrap admin: %s", apiErr.Message)
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	slog.Info("admin user created",
		slog.Int64("user_id", u.ID),
		slog.String("username", u.Username),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
