package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/workbench/internal/model"
)

// MemoryDeploymentRepo はインメモリのデプロイ記録リポジトリ。
type MemoryDeploymentRepo struct {
	mu          sync.Mutex
	deployments map[int64]model.ProjectDeployment
	nextID      int64
}

// NewMemoryDeploymentRepo はMemoryDeploymentRepoを生成する。
func NewMemoryDeploymentRepo() *MemoryDeploymentRepo {
	return &MemoryDeploymentRepo{
		deployments: make(map[int64]model.ProjectDeployment),
		nextID:      1,
	}
}

// FindByID は指定IDのデプロイ記録を取得する。見つからない場合はnilを返す。
func (r *MemoryDeploymentRepo) FindByID(ctx context.Context, id int64) (*model.ProjectDeployment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.deployments[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// ListByProject はプロジェクトのデプロイ記録一覧を作成日時の降順で返す。
// 作成日時が同一の場合はIDの降順で安定化する。
func (r *MemoryDeploymentRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.ProjectDeployment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deployments := []*model.ProjectDeployment{}
	for _, d := range r.deployments {
		if d.ProjectID == projectID {
			dep := d
			deployments = append(deployments, &dep)
		}
	}

	sort.Slice(deployments, func(i, j int) bool {
		if !deployments[i].CreatedAt.Equal(deployments[j].CreatedAt) {
			return deployments[i].CreatedAt.After(deployments[j].CreatedAt)
		}
		return deployments[i].ID > deployments[j].ID
	})

	return deployments, nil
}

// Create はデプロイ記録を作成する。IDはデプロイ専用カウンターから採番する。
func (r *MemoryDeploymentRepo) Create(ctx context.Context, deployment *model.ProjectDeployment) (*model.ProjectDeployment, error) {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	created := *deployment
	created.ID = r.nextID
	r.nextID++
	created.CreatedAt = now
	created.UpdatedAt = now

	r.deployments[created.ID] = created
	return &created, nil
}

// Update はデプロイ記録を部分更新する。対象が存在しない場合はnilを返す。
func (r *MemoryDeploymentRepo) Update(ctx context.Context, id int64, upd model.DeploymentUpdate) (*model.ProjectDeployment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.deployments[id]
	if !ok {
		return nil, nil
	}

	if upd.DeploymentURL != nil {
		existing.DeploymentURL = *upd.DeploymentURL
	}
	if upd.Status != nil {
		existing.Status = *upd.Status
	}
	if upd.BuildLogs != nil {
		existing.BuildLogs = *upd.BuildLogs
	}
	existing.UpdatedAt = time.Now().UTC()

	r.deployments[id] = existing
	return &existing, nil
}

// compile-time interface check
var _ DeploymentRepository = (*MemoryDeploymentRepo)(nil)
