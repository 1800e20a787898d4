package manager

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/repository"
)

type mockManagerRepo struct {
	findByIDFn    func(ctx context.Context, id int64) (*model.Manager, error)
	findByEmailFn func(ctx context.Context, email string) (*model.Manager, error)
	findByNameFn  func(ctx context.Context, name string) (*model.Manager, error)
	createFn      func(ctx context.Context, m *model.Manager) error
	updateFn      func(ctx context.Context, id int64, patch model.ManagerPatch) error
	deleteFn      func(ctx context.Context, id int64) error
}

func (m *mockManagerRepo) FindByID(ctx context.Context, id int64) (*model.Manager, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockManagerRepo) FindByEmail(ctx context.Context, email string) (*model.Manager, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}
func (m *mockManagerRepo) FindByName(ctx context.Context, name string) (*model.Manager, error) {
	if m.findByNameFn != nil {
		return m.findByNameFn(ctx, name)
	}
	return nil, nil
}
func (m *mockManagerRepo) FindByLogin(ctx context.Context, identifier string) (*model.Manager, error) {
	return nil, nil
}
func (m *mockManagerRepo) List(ctx context.Context) ([]*model.Manager, error) {
	return nil, nil
}
func (m *mockManagerRepo) Create(ctx context.Context, mgr *model.Manager) error {
	if m.createFn != nil {
		return m.createFn(ctx, mgr)
	}
	mgr.ID = 1
	return nil
}
func (m *mockManagerRepo) Update(ctx context.Context, id int64, patch model.ManagerPatch) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return nil
}
func (m *mockManagerRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return nil
}
func (m *mockManagerRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func fields(t *testing.T, body string) input.Fields {
	t.Helper()
	f, err := input.Decode(strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to decode %q: %v", body, err)
	}
	return f
}

func apiErrorCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	return apiErr.Code
}

func TestService_Create(t *testing.T) {
	var stored model.Manager
	repo := &mockManagerRepo{
		createFn: func(ctx context.Context, m *model.Manager) error {
			stored = *m
			m.ID = 3
			return nil
		},
	}
	svc := NewService(repo, fakeHasher{}, Config{PasswordMinLength: 8})

	m, err := svc.Create(context.Background(), fields(t,
		`{"name":"Kojo","email":"kojo@example.com","password":"secret123","phone":"0244000000"}`))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if stored.PasswordHash != "hashed:secret123" {
		t.Errorf("stored PasswordHash = %q", stored.PasswordHash)
	}
	if m.PasswordHash != "" {
		t.Error("returned manager carries password hash")
	}
	if m.Phone == nil || *m.Phone != "0244000000" {
		t.Errorf("Phone = %v, want 0244000000", m.Phone)
	}
}

func TestService_Create_Errors(t *testing.T) {
	tests := []struct {
		name     string
		repo     *mockManagerRepo
		body     string
		wantCode string
	}{
		{
			name:     "missing password",
			repo:     &mockManagerRepo{},
			body:     `{"name":"a","email":"a@example.com"}`,
			wantCode: model.ErrCodeMissingFields,
		},
		{
			name: "name taken",
			repo: &mockManagerRepo{
				findByNameFn: func(ctx context.Context, name string) (*model.Manager, error) {
					return &model.Manager{ID: 9, Name: name}, nil
				},
			},
			body:     `{"name":"a","email":"a@example.com","password":"secret123"}`,
			wantCode: model.ErrCodeDuplicate,
		},
		{
			name: "unique violation from storage",
			repo: &mockManagerRepo{
				createFn: func(ctx context.Context, m *model.Manager) error {
					return &repository.UniqueViolationError{Constraint: "managers_email_key", Field: "email"}
				},
			},
			body:     `{"name":"a","email":"a@example.com","password":"secret123"}`,
			wantCode: model.ErrCodeDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.repo, fakeHasher{}, Config{PasswordMinLength: 8})
			_, err := svc.Create(context.Background(), fields(t, tt.body))
			if got := apiErrorCode(t, err); got != tt.wantCode {
				t.Errorf("Code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	var gotPatch model.ManagerPatch
	repo := &mockManagerRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Manager, error) {
			return &model.Manager{ID: id, Name: "Kojo"}, nil
		},
		updateFn: func(ctx context.Context, id int64, patch model.ManagerPatch) error {
			gotPatch = patch
			return nil
		},
	}
	svc := NewService(repo, fakeHasher{}, Config{PasswordMinLength: 8})

	if _, err := svc.Update(context.Background(), 2, fields(t, `{"phone":"0200","password":"x"}`)); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if gotPatch.Phone == nil || *gotPatch.Phone != "0200" {
		t.Errorf("patch.Phone = %v, want 0200", gotPatch.Phone)
	}
	if gotPatch.Name != nil || gotPatch.Email != nil {
		t.Errorf("unexpected patch fields: %+v", gotPatch)
	}

	_, err := svc.Update(context.Background(), 2, fields(t, `{"password":"x"}`))
	if got := apiErrorCode(t, err); got != model.ErrCodeNoValidFields {
		t.Errorf("Code = %q, want %q", got, model.ErrCodeNoValidFields)
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	svc := NewService(&mockManagerRepo{}, fakeHasher{}, Config{})

	err := svc.Delete(context.Background(), 4)
	if got := apiErrorCode(t, err); got != model.ErrCodeNotFound {
		t.Errorf("Code = %q, want %q", got, model.ErrCodeNotFound)
	}
}
