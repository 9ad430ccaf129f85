package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/workbench/internal/model"
)

// MemoryConfigRepo はインメモリのプロジェクト設定リポジトリ。
// project_idをキーとして最大1件のみ保持する。
type MemoryConfigRepo struct {
	mu      sync.Mutex
	configs map[int64]model.ProjectConfig
	nextID  int64
}

// NewMemoryConfigRepo はMemoryConfigRepoを生成する。
func NewMemoryConfigRepo() *MemoryConfigRepo {
	return &MemoryConfigRepo{
		configs: make(map[int64]model.ProjectConfig),
		nextID:  1,
	}
}

// FindByProject はプロジェクトの設定を取得する。見つからない場合はnilを返す。
// 環境変数マップは呼び出し元の変更が格納値に影響しないようコピーして返す。
func (r *MemoryConfigRepo) FindByProject(ctx context.Context, projectID int64) (*model.ProjectConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	config, ok := r.configs[projectID]
	if !ok {
		return nil, nil
	}
	config.EnvironmentVars = copyEnvVars(config.EnvironmentVars)
	return &config, nil
}

// Upsert はproject_idをキーとして設定を作成または置換する。
// 既存レコードがある場合はIDとCreatedAtを保持する。
func (r *MemoryConfigRepo) Upsert(ctx context.Context, config *model.ProjectConfig) (*model.ProjectConfig, error) {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *config
	stored.EnvironmentVars = copyEnvVars(config.EnvironmentVars)
	stored.UpdatedAt = now

	if existing, ok := r.configs[config.ProjectID]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.ID = r.nextID
		r.nextID++
		stored.CreatedAt = now
	}

	r.configs[stored.ProjectID] = stored

	result := stored
	result.EnvironmentVars = copyEnvVars(stored.EnvironmentVars)
	return &result, nil
}

// copyEnvVars は環境変数マップの浅いコピーを返す。nilは空マップに正規化する。
func copyEnvVars(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// compile-time interface check
var _ ConfigRepository = (*MemoryConfigRepo)(nil)
