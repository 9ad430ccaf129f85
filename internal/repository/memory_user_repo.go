package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/workbench/internal/model"
)

// MemoryUserRepo はインメモリのユーザーリポジトリ。
// プロセス内限定・揮発性。全操作はミューテックスで直列化される。
// ユーザーIDはUUIDを採番するため、並行Createでも衝突しない。
type MemoryUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users: make(map[string]model.User),
	}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// Create はユーザーを作成する。IDにはUUIDを採番し、両タイムスタンプを付与する。
func (r *MemoryUserRepo) Create(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now().UTC()

	created := *user
	created.ID = uuid.New().String()
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Plan == "" {
		created.Plan = model.PlanFree
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[created.ID] = created

	return &created, nil
}

// Update はユーザーを部分更新する。対象が存在しない場合はnilを返す。
func (r *MemoryUserRepo) Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[id]
	if !ok {
		return nil, nil
	}

	if upd.Username != nil {
		existing.Username = *upd.Username
	}
	if upd.Email != nil {
		existing.Email = *upd.Email
	}
	if upd.Plan != nil {
		existing.Plan = *upd.Plan
	}
	if upd.StripeCustomerID != nil {
		existing.StripeCustomerID = *upd.StripeCustomerID
	}
	existing.UpdatedAt = time.Now().UTC()

	r.users[id] = existing
	return &existing, nil
}

// Delete は指定IDのユーザーを削除する。削除した場合はtrueを返す。
func (r *MemoryUserRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

// compile-time interface check
var _ UserRepository = (*MemoryUserRepo)(nil)
