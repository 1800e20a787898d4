package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/foodapi/internal/model"
)

type createdLog struct {
	userID   int64
	role     model.Role
	activity string
}

type mockActivityRepo struct {
	createFn  func(ctx context.Context, userID int64, role model.Role, activity string) error
	created   []createdLog
	listLimit int
}

func (m *mockActivityRepo) Create(ctx context.Context, userID int64, role model.Role, activity string) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, role, activity)
	}
	m.created = append(m.created, createdLog{userID, role, activity})
	return nil
}

func (m *mockActivityRepo) List(ctx context.Context, limit int) ([]*model.ActivityLog, error) {
	m.listLimit = limit
	return []*model.ActivityLog{}, nil
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"POST", "/v1/users", "User management: POST request to /v1/users"},
		{"PATCH", "/v1/users/3", "User management: PATCH request to /v1/users/3"},
		{"POST", "/v1/users/3/cart", "Cart: POST request to /v1/users/3/cart"},
		{"POST", "/v1/users/3/addresses", "Address: POST request to /v1/users/3/addresses"},
		{"POST", "/v1/users/3/profile-image", "User management: POST request to /v1/users/3/profile-image"},
		{"DELETE", "/v1/managers/2", "Manager management: DELETE request to /v1/managers/2"},
		{"POST", "/v1/foods", "Catalog: POST request to /v1/foods"},
		{"PATCH", "/v1/cart-items/9", "Cart: PATCH request to /v1/cart-items/9"},
		{"PATCH", "/v1/payments/1/status", "Order: PATCH request to /v1/payments/1/status"},
		{"PATCH", "/v1/notifications/1/read", "Notification: PATCH request to /v1/notifications/1/read"},
		{"POST", "/v2/things", "POST request to /v2/things"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if got := Describe(tt.method, tt.path); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecorder_Record(t *testing.T) {
	repo := &mockActivityRepo{}
	r := NewRecorder(repo)

	officer := model.Identity{UserID: 4, Role: model.RoleOfficer, Username: "ama"}

	r.Record(context.Background(), officer, "GET", "/v1/users")
	r.Record(context.Background(), model.Identity{}, "POST", "/v1/users")
	r.Record(context.Background(), officer, "DELETE", "/v1/addresses/1")

	if len(repo.created) != 1 {
		t.Fatalf("created = %v, want exactly one entry", repo.created)
	}
	want := createdLog{4, model.RoleOfficer, "Address: DELETE request to /v1/addresses/1"}
	if repo.created[0] != want {
		t.Errorf("created[0] = %+v, want %+v", repo.created[0], want)
	}
}

func TestRecorder_Record_KeepsManagerRole(t *testing.T) {
	repo := &mockActivityRepo{}
	r := NewRecorder(repo)

	r.Record(context.Background(), model.Identity{UserID: 3, Role: model.RoleManager, Username: "kitchen"}, "POST", "/v1/foods")
	r.Record(context.Background(), model.Identity{UserID: 3, Role: model.RoleOfficer, Username: "ama"}, "POST", "/v1/foods")

	want := []createdLog{
		{3, model.RoleManager, "Catalog: POST request to /v1/foods"},
		{3, model.RoleOfficer, "Catalog: POST request to /v1/foods"},
	}
	if len(repo.created) != len(want) {
		t.Fatalf("created = %+v, want %+v", repo.created, want)
	}
	for i := range want {
		if repo.created[i] != want[i] {
			t.Errorf("created[%d] = %+v, want %+v", i, repo.created[i], want[i])
		}
	}
}

func TestRecorder_Record_SkipsMissingRole(t *testing.T) {
	repo := &mockActivityRepo{}
	NewRecorder(repo).Record(context.Background(), model.Identity{UserID: 3}, "POST", "/v1/foods")

	if len(repo.created) != 0 {
		t.Errorf("created = %+v, want none", repo.created)
	}
}

func TestRecorder_Record_StorageErrorIsSwallowed(t *testing.T) {
	repo := &mockActivityRepo{
		createFn: func(ctx context.Context, userID int64, role model.Role, activity string) error {
			return errors.New("disk full")
		},
	}
	// パニックせず戻ることのみ確認する
	NewRecorder(repo).Record(context.Background(), model.Identity{UserID: 1, Role: model.RoleAdmin}, "POST", "/v1/foods")
}

func TestRecorder_List_ClampsLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{20, 20},
		{5000, MaxLimit},
	}

	for _, tt := range tests {
		repo := &mockActivityRepo{}
		if _, err := NewRecorder(repo).List(context.Background(), tt.in); err != nil {
			t.Fatalf("List(%d) returned error: %v", tt.in, err)
		}
		if repo.listLimit != tt.want {
			t.Errorf("List(%d) limit = %d, want %d", tt.in, repo.listLimit, tt.want)
		}
	}
}
