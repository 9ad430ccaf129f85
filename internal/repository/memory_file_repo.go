package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/workbench/internal/model"
)

// MemoryFileRepo はインメモリのプロジェクトファイルリポジトリ。
// (project_id, path) の自然キーでレコードを管理する。
// Upsertのルックアップと書き込みは同一ミューテックス内で行うためアトミック。
type MemoryFileRepo struct {
	mu     sync.Mutex
	files  map[string]model.ProjectFile
	nextID int64
}

// NewMemoryFileRepo はMemoryFileRepoを生成する。
func NewMemoryFileRepo() *MemoryFileRepo {
	return &MemoryFileRepo{
		files:  make(map[string]model.ProjectFile),
		nextID: 1,
	}
}

// fileKey は自然キー(project_id, path)をマップキーに変換する。
func fileKey(projectID int64, path string) string {
	return fmt.Sprintf("%d:%s", projectID, path)
}

// ListByProject はプロジェクトのファイル一覧をパスの昇順で返す。
func (r *MemoryFileRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.ProjectFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	files := []*model.ProjectFile{}
	for _, file := range r.files {
		if file.ProjectID == projectID {
			f := file
			files = append(files, &f)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// FindByPath は自然キーでファイルを取得する。見つからない場合はnilを返す。
func (r *MemoryFileRepo) FindByPath(ctx context.Context, projectID int64, path string) (*model.ProjectFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, ok := r.files[fileKey(projectID, path)]
	if !ok {
		return nil, nil
	}
	return &file, nil
}

// Upsert は自然キーでファイルを作成または置換する。
// 既存レコードがある場合はIDとCreatedAtを保持し、内容とUpdatedAtのみ更新する。
func (r *MemoryFileRepo) Upsert(ctx context.Context, file *model.ProjectFile) (*model.ProjectFile, error) {
	now := time.Now().UTC()
	key := fileKey(file.ProjectID, file.Path)

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *file
	stored.UpdatedAt = now

	if existing, ok := r.files[key]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.ID = r.nextID
		r.nextID++
		stored.CreatedAt = now
	}

	r.files[key] = stored
	return &stored, nil
}

// Delete は自然キーでファイルを削除する。削除した場合はtrueを返す。
func (r *MemoryFileRepo) Delete(ctx context.Context, projectID int64, path string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fileKey(projectID, path)
	if _, ok := r.files[key]; !ok {
		return false, nil
	}
	delete(r.files, key)
	return true, nil
}

// compile-time interface check
var _ ProjectFileRepository = (*MemoryFileRepo)(nil)
