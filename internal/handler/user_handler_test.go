package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/workbench/internal/model"
)

// テスト用のユーザールーターを構築する
func newUserTestRouter(repo *mockUserRepo) http.Handler {
	h := NewUserHandler(repo)
	r := chi.NewRouter()
	r.Post("/api/users", h.CreateUser)
	r.Get("/api/users/{id}", h.GetUser)
	return r
}

// 既存ユーザーの取得が200とユーザー情報を返すことを検証
func TestGetUser_Found(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			if id != "user-1" {
				t.Errorf("id = %q, want user-1", id)
			}
			return &model.User{
				ID:        "user-1",
				Username:  "hitoshi",
				Email:     "hitoshi@example.com",
				Plan:      model.PlanFree,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/user-1", nil)
	rec := httptest.NewRecorder()
	newUserTestRouter(repo).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのJSONパースに失敗: %v", err)
	}
	if body.Username != "hitoshi" {
		t.Errorf("username = %q, want hitoshi", body.Username)
	}
	if body.Plan != "free" {
		t.Errorf("plan = %q, want free", body.Plan)
	}
}

// 存在しないユーザーの取得が404とAPIError形式を返すことを検証
func TestGetUser_NotFound(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/ghost", nil)
	rec := httptest.NewRecorder()
	newUserTestRouter(repo).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var body apiErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのJSONパースに失敗: %v", err)
	}
	if body.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUserNotFound)
	}
}

// ストレージ障害が500に変換されることを検証
func TestGetUser_StorageFailure(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/user-1", nil)
	rec := httptest.NewRecorder()
	newUserTestRouter(repo).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

// ユーザー作成が201と生成済みレコードを返すことを検証
func TestCreateUser_Success(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) (*model.User, error) {
			created := *user
			created.ID = "generated-uuid"
			created.Plan = model.PlanFree
			created.CreatedAt = time.Now().UTC()
			created.UpdatedAt = created.CreatedAt
			return &created, nil
		},
	}

	body := strings.NewReader(`{"username":"hitoshi","email":"hitoshi@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	rec := httptest.NewRecorder()
	newUserTestRouter(repo).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body=%s)", rec.Code, rec.Body.String())
	}

	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("レスポンスのJSONパースに失敗: %v", err)
	}
	if resp.ID != "generated-uuid" {
		t.Errorf("id = %q, want generated-uuid", resp.ID)
	}
}

// 必須フィールドの欠落と不正プランが400になることを検証
func TestCreateUser_ValidationErrors(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) (*model.User, error) {
			t.Error("検証エラー時にCreateが呼ばれた")
			return nil, nil
		},
	}

	tests := []struct {
		name string
		body string
	}{
		{"username欠落", `{"email":"a@example.com"}`},
		{"email欠落", `{"username":"a"}`},
		{"不正なplan", `{"username":"a","email":"a@example.com","plan":"platinum"}`},
		{"不正なJSON", `{username}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			newUserTestRouter(repo).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
