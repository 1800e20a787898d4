package reset

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/foodapi/internal/metrics"
	"github.com/hitoshi/foodapi/internal/model"
)

// --- モック定義 ---

type mockUserRepo struct {
	users map[int64]*model.User
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return m.users[id], nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) FindByLogin(ctx context.Context, identifier string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) FindPasswordHash(ctx context.Context, id int64) (string, error) {
	return "", nil
}
func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) { return nil, nil }
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}
func (m *mockUserRepo) Update(ctx context.Context, id int64, patch model.UserPatch) error {
	return nil
}
func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return nil
}
func (m *mockUserRepo) Delete(ctx context.Context, id int64) error { return nil }

// memoryTickets はResetRepositoryと同じ判定規則を持つインメモリ実装。
type memoryTickets struct {
	mu      sync.Mutex
	tickets []*model.ResetTicket
}

func (m *memoryTickets) Create(ctx context.Context, ticket *model.ResetTicket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket.ID = int64(len(m.tickets) + 1)
	copied := *ticket
	m.tickets = append(m.tickets, &copied)
	return nil
}

func (m *memoryTickets) FindActiveByCode(ctx context.Context, code string, now time.Time) (*model.ResetTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.tickets) - 1; i >= 0; i-- {
		t := m.tickets[i]
		if t.Code == code && !t.Used && t.ExpiresAt.After(now) {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memoryTickets) Consume(ctx context.Context, userID int64, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	consumed := false
	for _, t := range m.tickets {
		if t.UserID == userID && t.Code == code && !t.Used {
			t.Used = true
			consumed = true
		}
	}
	return consumed, nil
}

type mockResetter struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *mockResetter) ResetPassword(ctx context.Context, userID int64, plain string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, plain)
	return nil
}

type mockSender struct {
	to, code string
	err      error
}

func (m *mockSender) SendResetCode(ctx context.Context, to, code string, expiresAt time.Time) error {
	m.to, m.code = to, code
	return m.err
}

type stageCollector struct {
	metrics.Noop
	stages []string
}

func (c *stageCollector) RecordPasswordReset(stage string) {
	c.stages = append(c.stages, stage)
}

// --- ヘルパー ---

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	tickets   *memoryTickets
	resetter  *mockResetter
	sender    *mockSender
	collector *stageCollector
}

func newFixture(development bool) *fixture {
	users := &mockUserRepo{users: map[int64]*model.User{
		7: {ID: 7, Email: "ama@example.com", Username: "ama", Role: model.RoleOfficer},
	}}
	f := &fixture{
		tickets:   &memoryTickets{},
		resetter:  &mockResetter{},
		sender:    &mockSender{},
		collector: &stageCollector{},
	}
	f.svc = NewService(users, f.tickets, f.resetter, f.sender, f.collector,
		Config{DefaultTTL: 15 * time.Minute, Development: development})
	f.svc.now = func() time.Time { return baseTime }
	return f
}

func apiCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// --- テスト ---

func TestGenerateCode_FixedWidthDigits(t *testing.T) {
	for range 200 {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode returned error: %v", err)
		}
		if len(code) != CodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), CodeLength)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit %q", code, r)
			}
		}
	}
}

// TestService_Request_DevelopmentExposesCode は開発環境でコードと期限が返されることを検証する。
func TestService_Request_DevelopmentExposesCode(t *testing.T) {
	f := newFixture(true)

	issued, err := f.svc.Request(context.Background(), "ama@example.com", 0)
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if !issued.Exposed || issued.Code == "" {
		t.Errorf("issued = %+v, want exposed code", issued)
	}
	if want := baseTime.Add(15 * time.Minute); !issued.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", issued.ExpiresAt, want)
	}
	if f.sender.code != "" {
		t.Error("development mode must not send email")
	}
	if len(f.tickets.tickets) != 1 || f.tickets.tickets[0].UserID != 7 {
		t.Errorf("tickets = %+v, want one ticket for user 7", f.tickets.tickets)
	}
}

// TestService_Request_ProductionHidesCode は開発環境以外でコードが返されずメール送信されることを検証する。
func TestService_Request_ProductionHidesCode(t *testing.T) {
	f := newFixture(false)

	issued, err := f.svc.Request(context.Background(), "ama@example.com", 30*time.Minute)
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if issued.Exposed || issued.Code != "" {
		t.Errorf("issued = %+v, code must not be exposed", issued)
	}
	if f.sender.to != "ama@example.com" {
		t.Errorf("sent to %q, want ama@example.com", f.sender.to)
	}
	if f.sender.code != f.tickets.tickets[0].Code {
		t.Errorf("sent code %q does not match stored code %q", f.sender.code, f.tickets.tickets[0].Code)
	}
	if want := baseTime.Add(30 * time.Minute); !f.tickets.tickets[0].ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", f.tickets.tickets[0].ExpiresAt, want)
	}
}

func TestService_Request_TTLIsCapped(t *testing.T) {
	f := newFixture(true)

	issued, err := f.svc.Request(context.Background(), "ama@example.com", 90*24*time.Hour)
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if want := baseTime.Add(MaxTTL); !issued.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", issued.ExpiresAt, want)
	}
}

func TestService_Request_Errors(t *testing.T) {
	f := newFixture(false)

	if code := apiCode(func() error { _, err := f.svc.Request(context.Background(), "", 0); return err }()); code != model.ErrCodeMissingFields {
		t.Errorf("empty email: code = %q, want %q", code, model.ErrCodeMissingFields)
	}
	if code := apiCode(func() error {
		_, err := f.svc.Request(context.Background(), "ghost@example.com", 0)
		return err
	}()); code != model.ErrCodeNotFound {
		t.Errorf("unknown email: code = %q, want %q", code, model.ErrCodeNotFound)
	}

	f.sender.err = errors.New("postmark unavailable")
	if _, err := f.svc.Request(context.Background(), "ama@example.com", 0); err == nil {
		t.Error("expected delivery failure to be reported")
	}
}

// TestService_VerifyAndReset_ConsumesOnce はリセット成功後に同じコードが使えないことを検証する。
func TestService_VerifyAndReset_ConsumesOnce(t *testing.T) {
	f := newFixture(true)
	issued, _ := f.svc.Request(context.Background(), "ama@example.com", 0)

	u, err := f.svc.Verify(context.Background(), issued.Code)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if u.ID != 7 {
		t.Errorf("user ID = %d, want 7", u.ID)
	}

	if err := f.svc.Reset(context.Background(), issued.Code, "new-password"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if len(f.resetter.calls) != 1 || f.resetter.calls[0] != "new-password" {
		t.Errorf("resetter calls = %v, want [new-password]", f.resetter.calls)
	}
	if !f.tickets.tickets[0].Used {
		t.Error("ticket should be marked used")
	}

	if code := apiCode(f.svc.Reset(context.Background(), issued.Code, "another-password")); code != model.ErrCodeInvalidOTP {
		t.Errorf("second reset: code = %q, want %q", code, model.ErrCodeInvalidOTP)
	}
	if _, err := f.svc.Verify(context.Background(), issued.Code); apiCode(err) != model.ErrCodeInvalidOTP {
		t.Errorf("verify after reset: err = %v, want invalid otp", err)
	}
}

// TestService_Reset_FailedPasswordUpdateKeepsCode はパスワード変更失敗時にコードが残ることを検証する。
func TestService_Reset_FailedPasswordUpdateKeepsCode(t *testing.T) {
	f := newFixture(true)
	issued, _ := f.svc.Request(context.Background(), "ama@example.com", 0)

	f.resetter.err = model.NewPasswordTooShortError(8)
	if code := apiCode(f.svc.Reset(context.Background(), issued.Code, "short")); code != model.ErrCodePasswordTooShort {
		t.Fatalf("code = %q, want %q", code, model.ErrCodePasswordTooShort)
	}
	if f.tickets.tickets[0].Used {
		t.Fatal("ticket must stay unused when the password update fails")
	}

	f.resetter.err = nil
	if err := f.svc.Reset(context.Background(), issued.Code, "long-enough"); err != nil {
		t.Fatalf("retry returned error: %v", err)
	}
}

// TestService_Verify_ExpiryBoundary は期限ちょうどのコードが無効になることを検証する。
func TestService_Verify_ExpiryBoundary(t *testing.T) {
	f := newFixture(true)
	issued, _ := f.svc.Request(context.Background(), "ama@example.com", time.Minute)

	f.svc.now = func() time.Time { return issued.ExpiresAt.Add(-time.Second) }
	if _, err := f.svc.Verify(context.Background(), issued.Code); err != nil {
		t.Errorf("one second before expiry: err = %v, want nil", err)
	}

	f.svc.now = func() time.Time { return issued.ExpiresAt }
	if _, err := f.svc.Verify(context.Background(), issued.Code); apiCode(err) != model.ErrCodeInvalidOTP {
		t.Errorf("at expiry: err = %v, want invalid otp", err)
	}
}

// TestService_Reset_PriorCodesStayValid は新しいコードの発行で過去のコードが無効化されないことを検証する。
func TestService_Reset_PriorCodesStayValid(t *testing.T) {
	f := newFixture(true)
	first, _ := f.svc.Request(context.Background(), "ama@example.com", 0)
	second, _ := f.svc.Request(context.Background(), "ama@example.com", 0)
	if first.Code == second.Code {
		t.Skip("random codes collided")
	}

	if _, err := f.svc.Verify(context.Background(), first.Code); err != nil {
		t.Errorf("first code: err = %v, want nil", err)
	}
	if _, err := f.svc.Verify(context.Background(), second.Code); err != nil {
		t.Errorf("second code: err = %v, want nil", err)
	}
}

func TestService_Reset_MissingFields(t *testing.T) {
	f := newFixture(true)

	if code := apiCode(f.svc.Reset(context.Background(), "", "")); code != model.ErrCodeMissingFields {
		t.Errorf("code = %q, want %q", code, model.ErrCodeMissingFields)
	}
}

func TestService_RecordsStages(t *testing.T) {
	f := newFixture(true)
	issued, _ := f.svc.Request(context.Background(), "ama@example.com", 0)
	_, _ = f.svc.Verify(context.Background(), "999999x")
	_ = f.svc.Reset(context.Background(), issued.Code, "new-password")

	want := []string{"requested", "rejected", "completed"}
	if len(f.collector.stages) != len(want) {
		t.Fatalf("stages = %v, want %v", f.collector.stages, want)
	}
	for i := range want {
		if f.collector.stages[i] != want[i] {
			t.Errorf("stages[%d] = %q, want %q", i, f.collector.stages[i], want[i])
		}
	}
}
