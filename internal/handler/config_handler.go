package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/workbench/internal/metrics"
	"github.com/hitoshi/workbench/internal/model"
	"github.com/hitoshi/workbench/internal/repository"
)

// ConfigHandler はプロジェクトビルド設定のHTTPハンドラー。
type ConfigHandler struct {
	configs   repository.ConfigRepository
	collector metrics.MetricsCollector
}

// NewConfigHandler はConfigHandlerを生成する。
func NewConfigHandler(configs repository.ConfigRepository, collector metrics.MetricsCollector) *ConfigHandler {
	return &ConfigHandler{
		configs:   configs,
		collector: collector,
	}
}

// configResponse はビルド設定のAPIレスポンス。
type configResponse struct {
	ID              int64             `json:"id"`
	ProjectID       int64             `json:"project_id"`
	Framework       string            `json:"framework"`
	BuildCommand    string            `json:"build_command,omitempty"`
	OutputDirectory string            `json:"output_directory,omitempty"`
	EnvironmentVars map[string]string `json:"environment_variables"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// upsertConfigRequest はビルド設定保存のリクエストボディ。
type upsertConfigRequest struct {
	Framework       string            `json:"framework"`
	BuildCommand    string            `json:"build_command"`
	OutputDirectory string            `json:"output_directory"`
	EnvironmentVars map[string]string `json:"environment_variables"`
}

// GetConfig はプロジェクトのビルド設定を返す。
// GET /api/projects/{id}/config
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseProjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	start := time.Now()
	config, err := h.configs.FindByProject(r.Context(), projectID)
	h.observeStorage("config_get", start, err)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if config == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     model.ErrCodeConfigNotFound,
			Message:  fmt.Sprintf("プロジェクトのビルド設定が見つかりません: %d", projectID),
			Category: "storage",
			Action:   "先にビルド設定を保存してください。",
		})
		return
	}

	writeJSON(w, http.StatusOK, toConfigResponse(config))
}

// UpsertConfig はプロジェクトのビルド設定を作成または置換する。
// project_idごとに最大1件のみ保持され、2回目以降の保存はidとcreated_atを保持する。
// POST /api/projects/{id}/config
func (h *ConfigHandler) UpsertConfig(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseProjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req upsertConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディのJSONが不正です。",
			Category: "validation",
			Action:   "リクエストボディの形式を確認してください。",
		})
		return
	}

	if req.Framework == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("framework は必須です"))
		return
	}

	start := time.Now()
	config, err := h.configs.Upsert(r.Context(), &model.ProjectConfig{
		ProjectID:       projectID,
		Framework:       req.Framework,
		BuildCommand:    req.BuildCommand,
		OutputDirectory: req.OutputDirectory,
		EnvironmentVars: req.EnvironmentVars,
	})
	h.observeStorage("config_upsert", start, err)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toConfigResponse(config))
}

// observeStorage はストレージ操作のレイテンシと失敗をメトリクスに記録する。
func (h *ConfigHandler) observeStorage(operation string, start time.Time, err error) {
	if h.collector == nil {
		return
	}
	h.collector.RecordStorageLatency(operation, time.Since(start))
	if err != nil {
		h.collector.RecordStorageFailure(operation)
	}
}

// toConfigResponse はmodel.ProjectConfigからAPIレスポンスに変換する。
func toConfigResponse(config *model.ProjectConfig) configResponse {
	return configResponse{
		ID:              config.ID,
		ProjectID:       config.ProjectID,
		Framework:       config.Framework,
		BuildCommand:    config.BuildCommand,
		OutputDirectory: config.OutputDirectory,
		EnvironmentVars: config.EnvironmentVars,
		CreatedAt:       config.CreatedAt,
		UpdatedAt:       config.UpdatedAt,
	}
}
