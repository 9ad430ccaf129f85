package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/workbench/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id int64) (*model.Project, error) {
	project := &model.Project{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, description, deployed_url, deployment_status, created_at, updated_at
		 FROM projects WHERE id = $1`,
		id,
	).Scan(&project.ID, &project.UserID, &project.Name, &project.Description,
		&project.DeployedURL, &project.DeploymentStatus, &project.CreatedAt, &project.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project by ID: %w", err)
	}

	return project, nil
}

// ListByUserID はユーザーのプロジェクト一覧を作成日時の降順で返す。
// プロジェクトが存在しない場合は空スライスを返す。
func (r *PostgresProjectRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, description, deployed_url, deployment_status, created_at, updated_at
		 FROM projects WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects by user: %w", err)
	}
	defer rows.Close()

	projects := []*model.Project{}
	for rows.Next() {
		project := &model.Project{}
		if err := rows.Scan(&project.ID, &project.UserID, &project.Name, &project.Description,
			&project.DeployedURL, &project.DeploymentStatus, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate project rows: %w", err)
	}

	return projects, nil
}

// Create はプロジェクトを作成する。IDはシーケンスから採番し、両タイムスタンプを付与する。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.Project) (*model.Project, error) {
	now := time.Now().UTC()

	created := *project
	created.CreatedAt = now
	created.UpdatedAt = now

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO projects (user_id, name, description, deployed_url, deployment_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		created.UserID, created.Name, created.Description, created.DeployedURL,
		created.DeploymentStatus, created.CreatedAt, created.UpdatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	return &created, nil
}

// Update はプロジェクトを部分更新する。対象が存在しない場合はnilを返す。
func (r *PostgresProjectRepo) Update(ctx context.Context, id int64, upd model.ProjectUpdate) (*model.Project, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
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

	_, err = r.db.ExecContext(ctx,
		`UPDATE projects SET name = $2, description = $3, deployed_url = $4, deployment_status = $5, updated_at = $6
		 WHERE id = $1`,
		existing.ID, existing.Name, existing.Description, existing.DeployedURL,
		existing.DeploymentStatus, existing.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return existing, nil
}

// Delete は指定IDのプロジェクトを削除する。削除した場合はtrueを返す。
// 関連するfiles、deployments、configsはCASCADE削除される。
func (r *PostgresProjectRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete project: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
