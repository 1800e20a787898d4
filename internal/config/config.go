package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// App
	AppEnv   string
	LogLevel string

	// Database
	DatabaseURL string

	// Token
	JWTSecret string
	JWTTTL    time.Duration
	JWTIssuer string

	// Password reset
	ResetTTLMinutes    int
	ResetRetentionDays int
	PasswordMinLength  int

	// Rate Limit
	RateLimitGeneral int
	RateLimitAuth    int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// MinIO（プロフィール画像）
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIOPublicURL string

	// Mail
	PostmarkServerToken string
	MailFrom            string

	// Bootstrap admin
	BootstrapAdminUsername string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// LoadDotEnv は.envファイルの内容を環境変数に取り込む。
// 既に設定済みの環境変数は上書きしない。ファイルが存在しない場合は何もしない。
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.AppEnv = getEnvString("APP_ENV", "production")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.JWTTTL = getEnvDuration("JWT_TTL", 24*time.Hour)
	cfg.JWTIssuer = getEnvString("JWT_ISSUER", "foodapi")
	cfg.ResetTTLMinutes = getEnvInt("RESET_TTL_MINUTES", 15)
	cfg.ResetRetentionDays = getEnvInt("RESET_RETENTION_DAYS", 7)
	cfg.PasswordMinLength = getEnvInt("PASSWORD_MIN_LENGTH", 8)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	cfg.MinIOEndpoint = getEnvString("MINIO_ENDPOINT", "")
	cfg.MinIOAccessKey = getEnvString("MINIO_ACCESS_KEY", "")
	cfg.MinIOSecretKey = getEnvString("MINIO_SECRET_KEY", "")
	cfg.MinIOBucket = getEnvString("MINIO_BUCKET", "profile-images")
	cfg.MinIOUseSSL = getEnvBool("MINIO_USE_SSL", false)
	cfg.MinIOPublicURL = getEnvString("MINIO_PUBLIC_URL", "")

	cfg.PostmarkServerToken = getEnvString("POSTMARK_SERVER_TOKEN", "")
	cfg.MailFrom = getEnvString("MAIL_FROM", "no-reply@foodapi.local")

	cfg.BootstrapAdminUsername = getEnvString("BOOTSTRAP_ADMIN_USERNAME", "")
	cfg.BootstrapAdminEmail = getEnvString("BOOTSTRAP_ADMIN_EMAIL", "")
	cfg.BootstrapAdminPassword = getEnvString("BOOTSTRAP_ADMIN_PASSWORD", "")

	return cfg, nil
}

// IsDevelopment は開発環境かどうかを返す。
// trueの場合のみパスワードリセットのOTPをレスポンスに含める。
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MinIOEnabled はプロフィール画像ストレージの設定が揃っているかを返す。
func (c *Config) MinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

// PostmarkEnabled はメール送信の設定があるかを返す。
func (c *Config) PostmarkEnabled() bool {
	return c.PostmarkServerToken != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
