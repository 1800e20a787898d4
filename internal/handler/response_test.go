package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/foodapi/internal/middleware"
	"github.com/hitoshi/foodapi/internal/model"
)

// --- テストヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// withIdentity はテスト用にリクエストコンテキストへ認証済み主体を注入するヘルパー。
func withIdentity(r *http.Request, userID int64, role model.Role) *http.Request {
	ctx := middleware.ContextWithIdentity(r.Context(), model.Identity{UserID: userID, Role: role})
	return r.WithContext(ctx)
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeEnvelope はレスポンスボディをmapとして読み込む。
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

// assertSuccess はHTTP 200かつstatusがsuccessであることを検証する。
func assertSuccess(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("HTTP status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeEnvelope(t, w)
	if body["status"] != statusSuccess {
		t.Fatalf("status = %v, want success (body=%v)", body["status"], body)
	}
	return body
}

// assertError はHTTP 200かつstatusがerrorで、messageが一致することを検証する。
func assertError(t *testing.T, w *httptest.ResponseRecorder, wantMessage string) map[string]any {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("HTTP status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeEnvelope(t, w)
	if body["status"] != statusError {
		t.Fatalf("status = %v, want error (body=%v)", body["status"], body)
	}
	if body["message"] != wantMessage {
		t.Errorf("message = %v, want %q", body["message"], wantMessage)
	}
	return body
}

// --- エンベロープ ---

func TestHandleServiceError_APIError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/users", nil)

	handleServiceError(w, r, "create user", model.NewDuplicateError("email", "Email already in use by another account"))

	body := assertError(t, w, "Email already in use by another account")
	if body["field"] != "email" {
		t.Errorf("field = %v, want email", body["field"])
	}
}

func TestHandleServiceError_StorageErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/users", nil)

	handleServiceError(w, r, "create user", errors.New("pq: password authentication failed for user app"))

	body := assertError(t, w, "Failed to create user: database error")
	if _, ok := body["field"]; ok {
		t.Error("field must not be present for storage errors")
	}
	if strings.Contains(w.Body.String(), "pq:") {
		t.Error("response leaks the driver error")
	}
}

func TestWriteList_EmptyIsArray(t *testing.T) {
	w := httptest.NewRecorder()
	writeList[*model.Food](w, "foods", nil, "No foods found")

	if !strings.Contains(w.Body.String(), `"foods":[]`) {
		t.Errorf("body = %s, want foods to be an empty array", w.Body.String())
	}
	body := assertSuccess(t, w)
	if body["message"] != "No foods found" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestWriteSuccess_NullMessage(t *testing.T) {
	w := httptest.NewRecorder()
	writeSuccess(w, "food", &model.Food{ID: 1, Name: "Jollof"}, "")

	body := assertSuccess(t, w)
	if v, ok := body["message"]; !ok || v != nil {
		t.Errorf("message = %v (present=%v), want null", v, ok)
	}
	if _, ok := body["food"].(map[string]any); !ok {
		t.Errorf("food = %v, want object", body["food"])
	}
}

func TestDecodeFields_InvalidJSON(t *testing.T) {
	w := httptest.NewRecorder()
	r := jsonRequest(http.MethodPost, "/v1/foods", `{"name":`)

	if _, ok := decodeFields(w, r); ok {
		t.Fatal("decodeFields accepted malformed JSON")
	}
	assertError(t, w, "Invalid JSON request body")
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value  string
		wantOK bool
		want   int64
	}{
		{"42", true, 42},
		{"0", false, 0},
		{"-1", false, 0},
		{"abc", false, 0},
		{"", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", tt.value)

			got, ok := pathID(w, r, "id")
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("pathID(%q) = (%d, %v), want (%d, %v)", tt.value, got, ok, tt.want, tt.wantOK)
			}
			if !ok {
				body := assertError(t, w, "id must be a numeric value")
				if body["field"] != "id" {
					t.Errorf("field = %v, want id", body["field"])
				}
			}
		})
	}
}

func TestRequireSelfOrAdmin(t *testing.T) {
	tests := []struct {
		name       string
		identity   *model.Identity
		target     int64
		wantOK     bool
		wantStatus int
	}{
		{name: "self", identity: &model.Identity{UserID: 5, Role: model.RoleOfficer}, target: 5, wantOK: true},
		{name: "admin on other user", identity: &model.Identity{UserID: 1, Role: model.RoleAdmin}, target: 5, wantOK: true},
		{name: "officer on other user", identity: &model.Identity{UserID: 4, Role: model.RoleOfficer}, target: 5, wantStatus: http.StatusForbidden},
		{name: "manager with same numeric id", identity: &model.Identity{UserID: 5, Role: model.RoleManager}, target: 5, wantStatus: http.StatusForbidden},
		{name: "anonymous", target: 5, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.identity != nil {
				r = r.WithContext(middleware.ContextWithIdentity(r.Context(), *tt.identity))
			}
			w := httptest.NewRecorder()

			ok := requireSelfOrAdmin(w, r, tt.target)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok && w.Code != tt.wantStatus {
				t.Errorf("HTTP status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
