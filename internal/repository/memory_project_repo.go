package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/workbench/internal/model"
)

// MemoryProjectRepo はインメモリのプロジェクトリポジトリ。
// IDカウンターはこのリポジトリ専用であり、他のエンティティ型とは共有しない。
type MemoryProjectRepo struct {
	mu       sync.Mutex
	projects map[int64]model.Project
	nextID   int64
}

// NewMemoryProjectRepo はMemoryProjectRepoを生成する。
func NewMemoryProjectRepo() *MemoryProjectRepo {
	return &MemoryProjectRepo{
		projects: make(map[int64]model.Project),
		nextID:   1,
	}
}

// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *MemoryProjectRepo) FindByID(ctx context.Context, id int64) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	project, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	return &project, nil
}

// ListByUserID はユーザーのプロジェクト一覧を作成日時の降順で返す。
// 作成日時が同一の場合はIDの降順（新しい採番が先）で安定化する。
func (r *MemoryProjectRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	projects := []*model.Project{}
	for _, project := range r.projects {
		if project.UserID == userID {
			p := project
			projects = append(projects, &p)
		}
	}

	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.After(projects[j].CreatedAt)
		}
		return projects[i].ID > projects[j].ID
	})

	return projects, nil
}

// Create はプロジェクトを作成する。IDはプロジェクト専用カウンターから採番する。
func (r *MemoryProjectRepo) Create(ctx context.Context, project *model.Project) (*model.Project, error) {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	created := *project
	created.ID = r.nextID
	r.nextID++
	created.CreatedAt = now
	created.UpdatedAt = now

	r.projects[created.ID] = created
	return &created, nil
}

// Update はプロジェクトを部分更新する。対象が存在しない場合はnilを返す。
func (r *MemoryProjectRepo) Update(ctx context.Context, id int64, upd model.ProjectUpdate) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.projects[id]
	if !ok {
		return nil, nil
	}

	if upd.Name != nil {
		existing.Name = *upd.Name
	}
	if upd.Description != nil {
		existing.Description = *upd.Description
	}
	if upd.DeployedURL != nil {
		existing.DeployedURL = *upd.DeployedURL
	}
	if upd.DeploymentStatus != nil {
		existing.DeploymentStatus = *upd.DeploymentStatus
	}
	existing.UpdatedAt = time.Now().UTC()

	r.projects[id] = existing
	return &existing, nil
}

// Delete は指定IDのプロジェクトを削除する。削除した場合はtrueを返す。
func (r *MemoryProjectRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[id]; !ok {
		return false, nil
	}
	delete(r.projects, id)
	return true, nil
}

// compile-time interface check
var _ ProjectRepository = (*MemoryProjectRepo)(nil)
