// Package mailer はパスワードリセット用ワンタイムコードの配送を提供する。
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/keighl/postmark"
)

// Sender はリセットコードの送信インターフェース。
type Sender interface {
	SendResetCode(ctx context.Context, to, code string, expiresAt time.Time) error
}

// sendTimeout はPostmark APIへの1リクエストあたりの上限時間。
const sendTimeout = 10 * time.Second

// PostmarkSender はPostmark経由でリセットコードをメール送信する。
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender はサーバートークンと送信元アドレスからPostmarkSenderを生成する。
func NewPostmarkSender(serverToken, from string) *PostmarkSender {
	client := postmark.NewClient(serverToken, "")
	client.HTTPClient = &http.Client{Timeout: sendTimeout}
	return &PostmarkSender{
		client: client,
		from:   from,
	}
}

// SendResetCode はリセットコードを記載したメールを送信する。
func (s *PostmarkSender) SendResetCode(ctx context.Context, to, code string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt).Round(time.Minute)
	res, err := s.client.SendEmail(postmark.Email{
		From:     s.from,
		To:       to,
		Subject:  "Your password reset code",
		HtmlBody: fmt.Sprintf("<p>Your password reset code is <strong>%s</strong>.</p><p>It expires in %s.</p>", code, ttl),
		TextBody: fmt.Sprintf("Your password reset code is %s. It expires in %s.", code, ttl),
		Tag:      "password-reset",
	})
	if err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	slog.InfoContext(ctx, "reset email sent", slog.String("message_id", res.MessageID))
	return nil
}

// LogSender はメール配送が未設定の環境で、コードを発行した事実のみをログに残す。
// コード自体は出力しない。
type LogSender struct{}

// SendResetCode はリセットコード発行をログに記録する。
func (LogSender) SendResetCode(ctx context.Context, to, _ string, expiresAt time.Time) error {
	slog.WarnContext(ctx, "reset code issued but no mail transport is configured",
		slog.String("to", to),
		slog.Time("expires_at", expiresAt),
	)
	return nil
}
