package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/workbench/internal/metrics"
	"github.com/hitoshi/workbench/internal/model"
	"github.com/hitoshi/workbench/internal/repository"
)

// FileHandler はプロジェクトファイル管理のHTTPハンドラー。
type FileHandler struct {
	files     repository.ProjectFileRepository
	collector metrics.MetricsCollector
}

// NewFileHandler はFileHandlerを生成する。
func NewFileHandler(files repository.ProjectFileRepository, collector metrics.MetricsCollector) *FileHandler {
	return &FileHandler{
		files:     files,
		collector: collector,
	}
}

// fileResponse はプロジェクトファイルのAPIレスポンス。
type fileResponse struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// upsertFileRequest はファイル保存のリクエストボディ。
// project_idはURLパスから取得するためボディには含まない。
type upsertFileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ListFiles はプロジェクトのファイル一覧をパスの昇順で返す。
// GET /api/projects/{id}/files
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseProjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	start := time.Now()
	files, err := h.files.ListByProject(r.Context(), projectID)
	h.observeStorage("file_list", start, err)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]fileResponse, len(files))
	for i, f := range files {
		results[i] = toFileResponse(f)
	}
	writeJSON(w, http.StatusOK, results)
}

// UpsertFile はファイルを作成または上書き保存する。
// 自然キーは(URLのプロジェクトID, ボディのpath)。同一キーへの保存は
// 既存レコードのidとcreated_atを保持したまま内容を置き換える。
// POST /api/projects/{id}/files
func (h *FileHandler) UpsertFile(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseProjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req upsertFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディのJSONが不正です。",
			Category: "validation",
			Action:   "リクエストボディの形式を確認してください。",
		})
		return
	}

	if req.Path == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("path は必須です"))
		return
	}

	start := time.Now()
	file, err := h.files.Upsert(r.Context(), &model.ProjectFile{
		ProjectID: projectID,
		Path:      req.Path,
		Content:   req.Content,
	})
	h.observeStorage("file_upsert", start, err)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(file))
}

// observeStorage はストレージ操作のレイテンシと失敗をメトリクスに記録する。
func (h *FileHandler) observeStorage(operation string, start time.Time, err error) {
	if h.collector == nil {
		return
	}
	h.collector.RecordStorageLatency(operation, time.Since(start))
	if err != nil {
		h.collector.RecordStorageFailure(operation)
	}
}

// toFileResponse はmodel.ProjectFileからAPIレスポンスに変換する。
func toFileResponse(file *model.ProjectFile) fileResponse {
	return fileResponse{
		ID:        file.ID,
		ProjectID: file.ProjectID,
		Path:      file.Path,
		Content:   file.Content,
		CreatedAt: file.CreatedAt,
		UpdatedAt: file.UpdatedAt,
	}
}
