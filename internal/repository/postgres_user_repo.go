package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/workbench/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, plan, stripe_customer_id, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.Plan, &user.StripeCustomerID,
		&user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// Create はユーザーを作成する。IDにはUUIDを採番し、両タイムスタンプを付与する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now().UTC()

	created := *user
	created.ID = uuid.New().String()
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Plan == "" {
		created.Plan = model.PlanFree
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, plan, stripe_customer_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		created.ID, created.Username, created.Email, created.Plan, created.StripeCustomerID,
		created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &created, nil
}

// Update はユーザーを部分更新する。対象が存在しない場合はnilを返す。
func (r *PostgresUserRepo) Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
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

	_, err = r.db.ExecContext(ctx,
		`UPDATE users SET username = $2, email = $3, plan = $4, stripe_customer_id = $5, updated_at = $6
		 WHERE id = $1`,
		existing.ID, existing.Username, existing.Email, existing.Plan, existing.StripeCustomerID,
		existing.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return existing, nil
}

// Delete は指定IDのユーザーを削除する。削除した場合はtrueを返す。
func (r *PostgresUserRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
