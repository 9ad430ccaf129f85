package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/workbench/internal/metrics"
	"github.com/hitoshi/workbench/internal/model"
	"github.com/hitoshi/workbench/internal/repository"
	"github.com/hitoshi/workbench/internal/security"
)

// placeholderDeployURL はデプロイ先未指定時に記録されるプレースホルダーURL。
// 実際のデプロイプロバイダー連携は行わない。
const placeholderDeployURL = "https://placeholder-deploy-url.netlify.app"

// DeploymentHandler はデプロイ記録管理のHTTPハンドラー。
type DeploymentHandler struct {
	deployments repository.DeploymentRepository
	projects    repository.ProjectRepository
	guard       security.URLGuardService
	sanitizer   security.TextSanitizerService
	checkClient *http.Client
	collector   metrics.MetricsCollector
}

// NewDeploymentHandler はDeploymentHandlerを生成する。
// checkClientには到達確認用のSSRF防止付きHTTPクライアントを渡す。
func NewDeploymentHandler(
	deployments repository.DeploymentRepository,
	projects repository.ProjectRepository,
	guard security.URLGuardService,
	sanitizer security.TextSanitizerService,
	checkClient *http.Client,
	collector metrics.MetricsCollector,
) *DeploymentHandler {
	return &DeploymentHandler{
		deployments: deployments,
		projects:    projects,
		guard:       guard,
		sanitizer:   sanitizer,
		checkClient: checkClient,
		collector:   collector,
	}
}

// deploymentResponse はデプロイ記録のAPIレスポンス。
type deploymentResponse struct {
	ID            int64     `json:"id"`
	ProjectID     int64     `json:"project_id"`
	DeploymentURL string    `json:"deployment_url"`
	Status        string    `json:"status"`
	BuildLogs     string    `json:"build_logs,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// deployRequest はデプロイ開始のリクエストボディ。全フィールド省略可能。
type deployRequest struct {
	DeploymentURL string `json:"deployment_url"`
}

// ListDeployments はプロジェクトのデプロイ記録一覧を作成日時の降順で返す。
// GET /api/projects/{id}/deployments
func (h *DeploymentHandler) ListDeployments(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseProjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	start := time.Now()
	deployments, err := h.deployments.ListByProject(r.Context(), projectID)
	h.observeStorage("deployment_list", start, err)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]deploymentResponse, len(deployments))
	for i, d := range deployments {
		results[i] = toDeploymentResponse(d)
	}
	writeJSON(w, http.StatusOK, results)
}

// Deploy はpending状態のデプロイ記録を作成する。
// deployment_urlが指定された場合はURLガードで検証し、未指定の場合は
// プレースホルダーURLを記録する。外部デプロイプロバイダーの呼び出しは行わない。
// POST /api/projects/{id}/deploy
func (h *DeploymentHandler) Deploy(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseProjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// ボディは省略可能。空ボディはデコードエラーにしない。
	var req deployRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     model.ErrCodeInvalidRequest,
				Message:  "リクエストボディのJSONが不正です。",
				Category: "validation",
				Action:   "リクエストボディの形式を確認してください。",
			})
			return
		}
	}

	project, err := h.projects.FindByID(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if project == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewProjectNotFoundError(projectID))
		return
	}

	deployURL := placeholderDeployURL
	if req.DeploymentURL != "" {
		if err := h.guard.ValidateURL(req.DeploymentURL); err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewUnsafeURLError(err.Error()))
			return
		}
		deployURL = req.DeploymentURL
	}

	start := time.Now()
	deployment, err := h.deployments.Create(r.Context(), &model.ProjectDeployment{
		ProjectID:     projectID,
		DeploymentURL: deployURL,
		Status:        model.DeploymentStatusPending,
	})
	h.observeStorage("deployment_create", start, err)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// プロジェクト側のデプロイ状態も更新する
	pending := model.DeploymentStatusPending
	if _, err := h.projects.Update(r.Context(), projectID, model.ProjectUpdate{
		DeploymentStatus: &pending,
	}); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDeploymentResponse(deployment))
}

// CheckDeployment は記録済みデプロイURLへの到達確認を行い、
// 結果に応じてデプロイ記録とプロジェクトの状態をdeployed/failedに更新する。
// 到達確認はSSRF防止付きクライアントで行う。
// POST /api/deployments/{deploymentId}/check
func (h *DeploymentHandler) CheckDeployment(w http.ResponseWriter, r *http.Request) {
	deploymentID, ok := parseProjectID(w, chi.URLParam(r, "deploymentId"))
	if !ok {
		return
	}

	deployment, err := h.deployments.FindByID(r.Context(), deploymentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if deployment == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "DEPLOYMENT_NOT_FOUND",
			Message:  fmt.Sprintf("指定されたデプロイ記録が見つかりません: %d", deploymentID),
			Category: "storage",
			Action:   "デプロイIDを確認してください。",
		})
		return
	}

	status, logLine := h.probe(r, deployment.DeploymentURL)

	buildLogs := h.sanitizer.Sanitize(logLine)
	start := time.Now()
	updated, err := h.deployments.Update(r.Context(), deploymentID, model.DeploymentUpdate{
		Status:    &status,
		BuildLogs: &buildLogs,
	})
	h.observeStorage("deployment_update", start, err)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// プロジェクト側の状態とデプロイ先URLを同期する
	projectUpdate := model.ProjectUpdate{DeploymentStatus: &status}
	if status == model.DeploymentStatusDeployed {
		projectUpdate.DeployedURL = &deployment.DeploymentURL
	}
	if _, err := h.projects.Update(r.Context(), deployment.ProjectID, projectUpdate); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDeploymentResponse(updated))
}

// probe はデプロイURLへHEADリクエストを送り、到達結果の状態とログ行を返す。
func (h *DeploymentHandler) probe(r *http.Request, deployURL string) (model.DeploymentStatus, string) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodHead, deployURL, nil)
	if err != nil {
		return model.DeploymentStatusFailed, fmt.Sprintf("invalid deployment URL: %v", err)
	}

	resp, err := h.checkClient.Do(req)
	if err != nil {
		return model.DeploymentStatusFailed, fmt.Sprintf("deployment unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return model.DeploymentStatusFailed, fmt.Sprintf("deployment returned status %d", resp.StatusCode)
	}
	return model.DeploymentStatusDeployed, fmt.Sprintf("deployment reachable with status %d", resp.StatusCode)
}

// observeStorage はストレージ操作のレイテンシと失敗をメトリクスに記録する。
func (h *DeploymentHandler) observeStorage(operation string, start time.Time, err error) {
	if h.collector == nil {
		return
	}
	h.collector.RecordStorageLatency(operation, time.Since(start))
	if err != nil {
		h.collector.RecordStorageFailure(operation)
	}
}

// toDeploymentResponse はmodel.ProjectDeploymentからAPIレスポンスに変換する。
func toDeploymentResponse(deployment *model.ProjectDeployment) deploymentResponse {
	return deploymentResponse{
		ID:            deployment.ID,
		ProjectID:     deployment.ProjectID,
		DeploymentURL: deployment.DeploymentURL,
		Status:        string(deployment.Status),
		BuildLogs:     deployment.BuildLogs,
		CreatedAt:     deployment.CreatedAt,
		UpdatedAt:     deployment.UpdatedAt,
	}
}
