package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/workbench/internal/model"
	"github.com/hitoshi/workbench/internal/repository"
)

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	users repository.UserRepository
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(users repository.UserRepository) *UserHandler {
	return &UserHandler{
		users: users,
	}
}

// userResponse はユーザーのAPIレスポンス。
type userResponse struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Plan             string    `json:"plan"`
	StripeCustomerID string    `json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// createUserRequest はユーザー作成のリクエストボディ。
type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Plan     string `json:"plan"`
}

// GetUser は指定IDのユーザーを返す。
// GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError(userID))
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// CreateUser はユーザーを作成する。
// POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディのJSONが不正です。",
			Category: "validation",
			Action:   "リクエストボディの形式を確認してください。",
		})
		return
	}

	if req.Username == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("username は必須です"))
		return
	}
	if req.Email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("email は必須です"))
		return
	}

	plan := model.Plan(req.Plan)
	if req.Plan != "" && !plan.IsValid() {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("plan は free/pro/team のいずれかを指定してください"))
		return
	}

	user, err := h.users.Create(r.Context(), &model.User{
		Username: req.Username,
		Email:    req.Email,
		Plan:     plan,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		Plan:             string(user.Plan),
		StripeCustomerID: user.StripeCustomerID,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}
