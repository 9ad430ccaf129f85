package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/workbench/internal/model"
)

// PostgresDeploymentRepo はPostgreSQLを使用したデプロイ記録リポジトリ。
type PostgresDeploymentRepo struct {
	db *sql.DB
}

// NewPostgresDeploymentRepo はPostgresDeploymentRepoを生成する。
func NewPostgresDeploymentRepo(db *sql.DB) *PostgresDeploymentRepo {
	return &PostgresDeploymentRepo{db: db}
}

// FindByID は指定IDのデプロイ記録を取得する。見つからない場合はnilを返す。
func (r *PostgresDeploymentRepo) FindByID(ctx context.Context, id int64) (*model.ProjectDeployment, error) {
	d := &model.ProjectDeployment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, deployment_url, status, build_logs, created_at, updated_at
		 FROM project_deployments WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.ProjectID, &d.DeploymentURL, &d.Status, &d.BuildLogs, &d.CreatedAt, &d.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find deployment by ID: %w", err)
	}

	return d, nil
}

// ListByProject はプロジェクトのデプロイ記録一覧を作成日時の降順で返す。
// 記録が存在しない場合は空スライスを返す。
func (r *PostgresDeploymentRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.ProjectDeployment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, deployment_url, status, build_logs, created_at, updated_at
		 FROM project_deployments WHERE project_id = $1
		 ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments by project: %w", err)
	}
	defer rows.Close()

	deployments := []*model.ProjectDeployment{}
	for rows.Next() {
		d := &model.ProjectDeployment{}
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.DeploymentURL, &d.Status, &d.BuildLogs,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deployment row: %w", err)
		}
		deployments = append(deployments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deployment rows: %w", err)
	}

	return deployments, nil
}

// Create はデプロイ記録を作成する。IDはシーケンスから採番し、両タイムスタンプを付与する。
func (r *PostgresDeploymentRepo) Create(ctx context.Context, deployment *model.ProjectDeployment) (*model.ProjectDeployment, error) {
	now := time.Now().UTC()

	created := *deployment
	created.CreatedAt = now
	created.UpdatedAt = now

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO project_deployments (project_id, deployment_url, status, build_logs, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		created.ProjectID, created.DeploymentURL, created.Status, created.BuildLogs,
		created.CreatedAt, created.UpdatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert deployment: %w", err)
	}

	return &created, nil
}

// Update はデプロイ記録を部分更新する。対象が存在しない場合はnilを返す。
func (r *PostgresDeploymentRepo) Update(ctx context.Context, id int64, upd model.DeploymentUpdate) (*model.ProjectDeployment, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
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

	_, err = r.db.ExecContext(ctx,
		`UPDATE project_deployments SET deployment_url = $2, status = $3, build_logs = $4, updated_at = $5
		 WHERE id = $1`,
		existing.ID, existing.DeploymentURL, existing.Status, existing.BuildLogs, existing.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update deployment: %w", err)
	}

	return existing, nil
}

// compile-time interface check
var _ DeploymentRepository = (*PostgresDeploymentRepo)(nil)
