// Package auth はユーザー・マネージャーのログインとベアラートークンの発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/foodapi/internal/metrics"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/repository"
)

// PasswordHasher はログイン時のパスワード検証と再ハッシュのインターフェース。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
	NeedsRehash(digest string) bool
}

// TokenIssuer はベアラートークンの発行インターフェース。
type TokenIssuer interface {
	Issue(userID int64, role, username string) (string, error)
}

// LoginResult はユーザーログインの結果。
type LoginResult struct {
	User  *model.User
	Token string
}

// ManagerLoginResult はマネージャーログインの結果。
type ManagerLoginResult struct {
	Manager *model.Manager
	Token   string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users    repository.UserRepository
	managers repository.ManagerRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	managers repository.ManagerRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Service{
		users:    users,
		managers: managers,
		hasher:   hasher,
		tokens:   tokens,
		metrics:  collector,
	}
}

func errCredentialsRequired() *model.APIError {
	e := model.NewMissingFieldsError("identifier", "password")
	e.Message = "Username/email and password are required"
	return e
}

// Login はユーザー名またはメールアドレスとパスワードでユーザーを認証し、トークンを発行する。
// ユーザー不在とパスワード不一致は同じエラーになる。
// 保存済みハッシュが古い形式・パラメータの場合は、認証成功時に再ハッシュして保存する。
func (s *Service) Login(ctx context.Context, identifier, plain string) (*LoginResult, error) {
	if identifier == "" || plain == "" {
		return nil, errCredentialsRequired()
	}

	u, err := s.users.FindByLogin(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for login: %w", err)
	}
	if u == nil || !s.hasher.Verify(plain, u.PasswordHash) {
		s.metrics.RecordLogin(metrics.LoginKindUser, metrics.LoginResultFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, plain, func(hash string) error {
			return s.users.UpdatePasswordHash(ctx, u.ID, hash)
		}, slog.Int64("user_id", u.ID))
	}
	u.PasswordHash = ""

	token, err := s.tokens.Issue(u.ID, string(u.Role), u.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.RecordLogin(metrics.LoginKindUser, metrics.LoginResultSuccess)
	slog.Info("user logged in",
		slog.Int64("user_id", u.ID),
		slog.String("role", string(u.Role)),
	)
	return &LoginResult{User: u, Token: token}, nil
}

// ManagerLogin は名前またはメールアドレスとパスワードでマネージャーを認証し、トークンを発行する。
// トークンのロールは常にmanagerとなる。
func (s *Service) ManagerLogin(ctx context.Context, identifier, plain string) (*ManagerLoginResult, error) {
	if identifier == "" || plain == "" {
		return nil, errCredentialsRequired()
	}

	m, err := s.managers.FindByLogin(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to find manager for login: %w", err)
	}
	if m == nil || !s.hasher.Verify(plain, m.PasswordHash) {
		s.metrics.RecordLogin(metrics.LoginKindManager, metrics.LoginResultFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	if s.hasher.NeedsRehash(m.PasswordHash) {
		s.rehash(ctx, plain, func(hash string) error {
			return s.managers.UpdatePasswordHash(ctx, m.ID, hash)
		}, slog.Int64("manager_id", m.ID))
	}
	m.PasswordHash = ""

	token, err := s.tokens.Issue(m.ID, string(model.RoleManager), m.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.RecordLogin(metrics.LoginKindManager, metrics.LoginResultSuccess)
	slog.Info("manager logged in", slog.Int64("manager_id", m.ID))
	return &ManagerLoginResult{Manager: m, Token: token}, nil
}

// rehash は現在のパラメータでハッシュを作り直して保存する。
// 失敗してもログインは成功させる。
func (s *Service) rehash(ctx context.Context, plain string, save func(hash string) error, owner slog.Attr) {
	hash, err := s.hasher.Hash(plain)
	if err == nil {
		err = save(hash)
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to rehash password", owner, slog.String("error", err.Error()))
		return
	}
	slog.InfoContext(ctx, "password rehashed", owner)
}
