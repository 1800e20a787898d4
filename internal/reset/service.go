// Package reset はワンタイムコードによるパスワードリセットを提供する。
//
// コードは6桁の数字で、発行時に指定した有効期限まで1回だけ使用できる。
// 同じユーザーに対する過去のコードは新しいコードの発行で無効化しない。
package reset

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/hitoshi/foodapi/internal/mailer"
	"github.com/hitoshi/foodapi/internal/metrics"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/repository"
)

// CodeLength はワンタイムコードの桁数。
const CodeLength = 6

// MaxTTL は呼び出し側が指定できる有効期限の上限。
const MaxTTL = 24 * time.Hour

var codeSpace = big.NewInt(1_000_000)

// PasswordResetter は本人確認済みユーザーのパスワードを置き換えるインターフェース。
type PasswordResetter interface {
	ResetPassword(ctx context.Context, userID int64, plain string) error
}

// Config はリセットサービスの設定。
type Config struct {
	// DefaultTTL はttl未指定時のコード有効期限。
	DefaultTTL time.Duration
	// Development がtrueの場合、発行したコードを呼び出し元に返す。
	Development bool
}

// Issued は発行したコードの情報。
// Exposedがfalseの場合、CodeとExpiresAtはレスポンスに含めてはならない。
type Issued struct {
	Code      string
	ExpiresAt time.Time
	Exposed   bool
}

// Service はパスワードリセットのサービス層。
type Service struct {
	users     repository.UserRepository
	tickets   repository.ResetRepository
	passwords PasswordResetter
	sender    mailer.Sender
	metrics   metrics.MetricsCollector
	config    Config
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	tickets repository.ResetRepository,
	passwords PasswordResetter,
	sender mailer.Sender,
	collector metrics.MetricsCollector,
	config Config,
) *Service {
	if collector == nil {
		collector = metrics.Noop{}
	}
	if sender == nil {
		sender = mailer.LogSender{}
	}
	return &Service{
		users:     users,
		tickets:   tickets,
		passwords: passwords,
		sender:    sender,
		metrics:   collector,
		config:    config,
		now:       time.Now,
	}
}

// Request はメールアドレスに対応するユーザーにリセットコードを発行する。
// ttlが0以下の場合はDefaultTTLを使用し、MaxTTLを超える場合はMaxTTLに切り詰める。
// 開発環境以外ではコードをメールで送信し、戻り値には含めない。
func (s *Service) Request(ctx context.Context, email string, ttl time.Duration) (*Issued, error) {
	if email == "" {
		return nil, model.NewMissingFieldsError("email")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if u == nil {
		e := model.NewNotFoundError("User")
		e.Message = "User not found with this email"
		e.Field = "email"
		return nil, e
	}

	if ttl <= 0 {
		ttl = s.config.DefaultTTL
	}
	ttl = min(ttl, MaxTTL)

	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}

	// 期限比較はDB側で行うため秒未満を切り捨てて保存する
	expiresAt := s.now().Add(ttl).Truncate(time.Second)
	ticket := &model.ResetTicket{UserID: u.ID, Code: code, ExpiresAt: expiresAt}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to store reset code: %w", err)
	}
	s.metrics.RecordPasswordReset(metrics.ResetStageRequested)

	if s.config.Development {
		slog.DebugContext(ctx, "reset code issued",
			slog.Int64("user_id", u.ID),
			slog.String("otp", code),
			slog.Time("expires_at", expiresAt),
		)
		return &Issued{Code: code, ExpiresAt: expiresAt, Exposed: true}, nil
	}

	if err := s.sender.SendResetCode(ctx, u.Email, code, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to deliver reset code: %w", err)
	}
	slog.InfoContext(ctx, "reset code issued", slog.Int64("user_id", u.ID))
	return &Issued{ExpiresAt: expiresAt}, nil
}

// Verify は有効なコードに対応するユーザーを返す。コードは消費しない。
func (s *Service) Verify(ctx context.Context, code string) (*model.User, error) {
	if code == "" {
		return nil, model.NewMissingFieldsError("otp")
	}

	ticket, err := s.activeTicket(ctx, code)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, ticket.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if u == nil {
		s.metrics.RecordPasswordReset(metrics.ResetStageRejected)
		return nil, model.NewInvalidOTPError()
	}

	s.metrics.RecordPasswordReset(metrics.ResetStageVerified)
	return u, nil
}

// Reset は有効なコードを使ってパスワードを変更し、コードを使用済みにする。
// パスワード変更に失敗した場合はコードを消費しないため、再試行できる。
func (s *Service) Reset(ctx context.Context, code, newPassword string) error {
	var missing []string
	if code == "" {
		missing = append(missing, "otp")
	}
	if newPassword == "" {
		missing = append(missing, "new_password")
	}
	if len(missing) > 0 {
		return model.NewMissingFieldsError(missing...)
	}

	ticket, err := s.activeTicket(ctx, code)
	if err != nil {
		return err
	}

	if err := s.passwords.ResetPassword(ctx, ticket.UserID, newPassword); err != nil {
		return err
	}

	consumed, err := s.tickets.Consume(ctx, ticket.UserID, code)
	if err != nil {
		slog.ErrorContext(ctx, "password updated but reset code was not consumed",
			slog.Int64("user_id", ticket.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to consume reset code: %w", err)
	}
	if !consumed {
		// 並行したリセットが先にコードを消費した
		slog.WarnContext(ctx, "reset code was already consumed by a concurrent request",
			slog.Int64("user_id", ticket.UserID),
		)
	}

	s.metrics.RecordPasswordReset(metrics.ResetStageCompleted)
	slog.InfoContext(ctx, "password reset completed", slog.Int64("user_id", ticket.UserID))
	return nil
}

func (s *Service) activeTicket(ctx context.Context, code string) (*model.ResetTicket, error) {
	ticket, err := s.tickets.FindActiveByCode(ctx, code, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to find reset code: %w", err)
	}
	if ticket == nil {
		s.metrics.RecordPasswordReset(metrics.ResetStageRejected)
		return nil, model.NewInvalidOTPError()
	}
	return ticket, nil
}

// GenerateCode は一様乱数から0埋め6桁の数字コードを生成する。
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
