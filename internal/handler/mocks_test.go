package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/workbench/internal/assistant"
	"github.com/hitoshi/workbench/internal/model"
)

// --- リポジトリモック ---

// mockUserRepo はUserRepositoryのテスト用モック。
type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
	createFn   func(ctx context.Context, user *model.User) (*model.User, error)
	updateFn   func(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error)
	deleteFn   func(ctx context.Context, id string) (bool, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) (*model.User, error) {
	return m.createFn(ctx, user)
}

func (m *mockUserRepo) Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error) {
	return m.updateFn(ctx, id, upd)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) (bool, error) {
	return m.deleteFn(ctx, id)
}

// mockProjectRepo はProjectRepositoryのテスト用モック。
type mockProjectRepo struct {
	findByIDFn     func(ctx context.Context, id int64) (*model.Project, error)
	listByUserIDFn func(ctx context.Context, userID string) ([]*model.Project, error)
	createFn       func(ctx context.Context, project *model.Project) (*model.Project, error)
	updateFn       func(ctx context.Context, id int64, upd model.ProjectUpdate) (*model.Project, error)
	deleteFn       func(ctx context.Context, id int64) (bool, error)
}

func (m *mockProjectRepo) FindByID(ctx context.Context, id int64) (*model.Project, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockProjectRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Project, error) {
	return m.listByUserIDFn(ctx, userID)
}

func (m *mockProjectRepo) Create(ctx context.Context, project *model.Project) (*model.Project, error) {
	return m.createFn(ctx, project)
}

func (m *mockProjectRepo) Update(ctx context.Context, id int64, upd model.ProjectUpdate) (*model.Project, error) {
	return m.updateFn(ctx, id, upd)
}

func (m *mockProjectRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return m.deleteFn(ctx, id)
}

// mockFileRepo はProjectFileRepositoryのテスト用モック。
type mockFileRepo struct {
	listByProjectFn func(ctx context.Context, projectID int64) ([]*model.ProjectFile, error)
	findByPathFn    func(ctx context.Context, projectID int64, path string) (*model.ProjectFile, error)
	upsertFn        func(ctx context.Context, file *model.ProjectFile) (*model.ProjectFile, error)
	deleteFn        func(ctx context.Context, projectID int64, path string) (bool, error)
}

func (m *mockFileRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.ProjectFile, error) {
	return m.listByProjectFn(ctx, projectID)
}

func (m *mockFileRepo) FindByPath(ctx context.Context, projectID int64, path string) (*model.ProjectFile, error) {
	return m.findByPathFn(ctx, projectID, path)
}

func (m *mockFileRepo) Upsert(ctx context.Context, file *model.ProjectFile) (*model.ProjectFile, error) {
	return m.upsertFn(ctx, file)
}

func (m *mockFileRepo) Delete(ctx context.Context, projectID int64, path string) (bool, error) {
	return m.deleteFn(ctx, projectID, path)
}

// mockDeploymentRepo はDeploymentRepositoryのテスト用モック。
type mockDeploymentRepo struct {
	findByIDFn      func(ctx context.Context, id int64) (*model.ProjectDeployment, error)
	listByProjectFn func(ctx context.Context, projectID int64) ([]*model.ProjectDeployment, error)
	createFn        func(ctx context.Context, deployment *model.ProjectDeployment) (*model.ProjectDeployment, error)
	updateFn        func(ctx context.Context, id int64, upd model.DeploymentUpdate) (*model.ProjectDeployment, error)
}

func (m *mockDeploymentRepo) FindByID(ctx context.Context, id int64) (*model.ProjectDeployment, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockDeploymentRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.ProjectDeployment, error) {
	return m.listByProjectFn(ctx, projectID)
}

func (m *mockDeploymentRepo) Create(ctx context.Context, deployment *model.ProjectDeployment) (*model.ProjectDeployment, error) {
	return m.createFn(ctx, deployment)
}

func (m *mockDeploymentRepo) Update(ctx context.Context, id int64, upd model.DeploymentUpdate) (*model.ProjectDeployment, error) {
	return m.updateFn(ctx, id, upd)
}

// mockConfigRepo はConfigRepositoryのテスト用モック。
type mockConfigRepo struct {
	findByProjectFn func(ctx context.Context, projectID int64) (*model.ProjectConfig, error)
	upsertFn        func(ctx context.Context, config *model.ProjectConfig) (*model.ProjectConfig, error)
}

func (m *mockConfigRepo) FindByProject(ctx context.Context, projectID int64) (*model.ProjectConfig, error) {
	return m.findByProjectFn(ctx, projectID)
}

func (m *mockConfigRepo) Upsert(ctx context.Context, config *model.ProjectConfig) (*model.ProjectConfig, error) {
	return m.upsertFn(ctx, config)
}

// --- その他のモック ---

// mockStreamer はAssistantStreamerのテスト用モック。
type mockStreamer struct {
	streamFn func(ctx context.Context, userMessage string, mode assistant.Mode, emit func(text string) error) error
}

func (m *mockStreamer) StreamCompletion(ctx context.Context, userMessage string, mode assistant.Mode, emit func(text string) error) error {
	return m.streamFn(ctx, userMessage, mode, emit)
}

// mockURLGuard はURLGuardServiceのテスト用モック。
type mockURLGuard struct {
	validateFn func(rawURL string) error
}

func (m *mockURLGuard) ValidateURL(rawURL string) error {
	return m.validateFn(rawURL)
}

func (m *mockURLGuard) NewSafeClient(timeout time.Duration) *http.Client {
	return http.DefaultClient
}

// mockSanitizer はTextSanitizerServiceのテスト用モック。素通しする。
type mockSanitizer struct{}

func (m *mockSanitizer) Sanitize(raw string) string {
	return raw
}
