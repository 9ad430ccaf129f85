package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/workbench/internal/model"
)

// PostgresConfigRepo はPostgreSQLを使用したプロジェクト設定リポジトリ。
// environment_varsカラムはJSONBとして保存する。
type PostgresConfigRepo struct {
	db *sql.DB
}

// NewPostgresConfigRepo はPostgresConfigRepoを生成する。
func NewPostgresConfigRepo(db *sql.DB) *PostgresConfigRepo {
	return &PostgresConfigRepo{db: db}
}

// FindByProject はプロジェクトの設定を取得する。見つからない場合はnilを返す。
func (r *PostgresConfigRepo) FindByProject(ctx context.Context, projectID int64) (*model.ProjectConfig, error) {
	config := &model.ProjectConfig{}
	var envJSON []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, framework, build_command, output_directory, environment_vars, created_at, updated_at
		 FROM project_configs WHERE project_id = $1`,
		projectID,
	).Scan(&config.ID, &config.ProjectID, &config.Framework, &config.BuildCommand,
		&config.OutputDirectory, &envJSON, &config.CreatedAt, &config.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクト設定の取得に失敗しました: %w", err)
	}

	if len(envJSON) > 0 {
		if err := json.Unmarshal(envJSON, &config.EnvironmentVars); err != nil {
			return nil, fmt.Errorf("環境変数JSONのパースに失敗しました: %w", err)
		}
	}

	return config, nil
}

// Upsert はproject_idをキーとして設定を作成または置換する。
// UNIQUE(project_id)制約を利用したINSERT ON CONFLICTの単一文で実装する。
// 既存レコードがある場合、IDとcreated_atはRETURNINGで既存値がそのまま返る。
func (r *PostgresConfigRepo) Upsert(ctx context.Context, config *model.ProjectConfig) (*model.ProjectConfig, error) {
	now := time.Now().UTC()

	stored := *config
	stored.UpdatedAt = now
	if stored.EnvironmentVars == nil {
		stored.EnvironmentVars = map[string]string{}
	}

	envJSON, err := json.Marshal(stored.EnvironmentVars)
	if err != nil {
		return nil, fmt.Errorf("環境変数のJSONエンコードに失敗しました: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO project_configs (project_id, framework, build_command, output_directory, environment_vars, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (project_id) DO UPDATE SET
		     framework = EXCLUDED.framework,
		     build_command = EXCLUDED.build_command,
		     output_directory = EXCLUDED.output_directory,
		     environment_vars = EXCLUDED.environment_vars,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		stored.ProjectID, stored.Framework, stored.BuildCommand, stored.OutputDirectory,
		envJSON, now, now,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト設定の保存に失敗しました: %w", err)
	}

	return &stored, nil
}

// compile-time interface check
var _ ConfigRepository = (*PostgresConfigRepo)(nil)
