package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/workbench/internal/metrics"
	"github.com/hitoshi/workbench/internal/model"
	"github.com/hitoshi/workbench/internal/repository"
	"github.com/hitoshi/workbench/internal/security"
)

// ProjectHandler はプロジェクト管理のHTTPハンドラー。
type ProjectHandler struct {
	projects  repository.ProjectRepository
	sanitizer security.TextSanitizerService
	collector metrics.MetricsCollector
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(projects repository.ProjectRepository, sanitizer security.TextSanitizerService, collector metrics.MetricsCollector) *ProjectHandler {
	return &ProjectHandler{
		projects:  projects,
		sanitizer: sanitizer,
		collector: collector,
	}
}

// projectResponse はプロジェクトのAPIレスポンス。
type projectResponse struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"user_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	DeployedURL      string    `json:"deployed_url,omitempty"`
	DeploymentStatus string    `json:"deployment_status,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// createProjectRequest はプロジェクト作成のリクエストボディ。
type createProjectRequest struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListProjectsByUser はユーザーのプロジェクト一覧を作成日時の降順で返す。
// GET /api/projects/user/{userId}
func (h *ProjectHandler) ListProjectsByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	start := time.Now()
	projects, err := h.projects.ListByUserID(r.Context(), userID)
	h.observeStorage("project_list", start, err)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]projectResponse, len(projects))
	for i, p := range projects {
		results[i] = toProjectResponse(p)
	}
	writeJSON(w, http.StatusOK, results)
}

// GetProject は指定IDのプロジェクトを返す。
// GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseProjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	start := time.Now()
	project, err := h.projects.FindByID(r.Context(), projectID)
	h.observeStorage("project_get", start, err)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if project == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewProjectNotFoundError(projectID))
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

// CreateProject はプロジェクトを作成する。
// 説明文はHTMLタグを除去してから保存する。
// POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディのJSONが不正です。",
			Category: "validation",
			Action:   "リクエストボディの形式を確認してください。",
		})
		return
	}

	if req.UserID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("user_id は必須です"))
		return
	}
	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("name は必須です"))
		return
	}

	start := time.Now()
	project, err := h.projects.Create(r.Context(), &model.Project{
		UserID:      req.UserID,
		Name:        req.Name,
		Description: h.sanitizer.Sanitize(req.Description),
	})
	h.observeStorage("project_create", start, err)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(project))
}

// observeStorage はストレージ操作のレイテンシと失敗をメトリクスに記録する。
func (h *ProjectHandler) observeStorage(operation string, start time.Time, err error) {
	if h.collector == nil {
		return
	}
	h.collector.RecordStorageLatency(operation, time.Since(start))
	if err != nil {
		h.collector.RecordStorageFailure(operation)
	}
}

// toProjectResponse はmodel.ProjectからAPIレスポンスに変換する。
func toProjectResponse(project *model.Project) projectResponse {
	return projectResponse{
		ID:               project.ID,
		UserID:           project.UserID,
		Name:             project.Name,
		Description:      project.Description,
		DeployedURL:      project.DeployedURL,
		DeploymentStatus: string(project.DeploymentStatus),
		CreatedAt:        project.CreatedAt,
		UpdatedAt:        project.UpdatedAt,
	}
}

// --- ヘルパー関数 ---

// apiErrorResponse は統一エラーフォーマットのレスポンスボディ。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はストレージ層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest, model.ErrCodeValidationFailed,
		model.ErrCodeInvalidProjectID, model.ErrCodeEmptyMessage, model.ErrCodeUnsafeURL:
		return http.StatusBadRequest
	case model.ErrCodeUserNotFound, model.ErrCodeProjectNotFound,
		model.ErrCodeFileNotFound, model.ErrCodeConfigNotFound:
		return http.StatusNotFound
	case model.ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseProjectID はURLパラメータのプロジェクトIDを整数にパースする。
// 不正な場合は400レスポンスを書き込み、falseを返す。
func parseProjectID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidProjectIDError(raw))
		return 0, false
	}
	return id, true
}
