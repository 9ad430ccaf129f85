package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/workbench/internal/model"
)

// PostgresFileRepo はPostgreSQLを使用したプロジェクトファイルリポジトリ。
type PostgresFileRepo struct {
	db *sql.DB
}

// NewPostgresFileRepo はPostgresFileRepoを生成する。
func NewPostgresFileRepo(db *sql.DB) *PostgresFileRepo {
	return &PostgresFileRepo{db: db}
}

// ListByProject はプロジェクトのファイル一覧をパスの昇順で返す。
// ファイルが存在しない場合は空スライスを返す。
func (r *PostgresFileRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.ProjectFile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, path, content, created_at, updated_at
		 FROM project_files WHERE project_id = $1
		 ORDER BY path ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("ファイル一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	files := []*model.ProjectFile{}
	for rows.Next() {
		file := &model.ProjectFile{}
		if err := rows.Scan(&file.ID, &file.ProjectID, &file.Path, &file.Content,
			&file.CreatedAt, &file.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ファイル行の読み取りに失敗しました: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ファイル一覧の走査に失敗しました: %w", err)
	}

	return files, nil
}

// FindByPath は自然キー(project_id, path)でファイルを取得する。見つからない場合はnilを返す。
func (r *PostgresFileRepo) FindByPath(ctx context.Context, projectID int64, path string) (*model.ProjectFile, error) {
	file := &model.ProjectFile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, path, content, created_at, updated_at
		 FROM project_files WHERE project_id = $1 AND path = $2`,
		projectID, path,
	).Scan(&file.ID, &file.ProjectID, &file.Path, &file.Content, &file.CreatedAt, &file.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ファイルの取得に失敗しました: %w", err)
	}

	return file, nil
}

// Upsert は自然キーでファイルを作成または置換する。
// UNIQUE(project_id, path)制約を利用したINSERT ON CONFLICTの単一文で実装するため、
// 同一キーへの並行Upsertがどちらも「新規作成」になることはない。
// 既存レコードがある場合、IDとcreated_atはRETURNINGで既存値がそのまま返る。
func (r *PostgresFileRepo) Upsert(ctx context.Context, file *model.ProjectFile) (*model.ProjectFile, error) {
	now := time.Now().UTC()

	stored := *file
	stored.UpdatedAt = now

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO project_files (project_id, path, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (project_id, path) DO UPDATE SET
		     content = EXCLUDED.content,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		stored.ProjectID, stored.Path, stored.Content, now, now,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ファイルの保存に失敗しました: %w", err)
	}

	return &stored, nil
}

// Delete は自然キーでファイルを削除する。削除した場合はtrueを返す。
func (r *PostgresFileRepo) Delete(ctx context.Context, projectID int64, path string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM project_files WHERE project_id = $1 AND path = $2`,
		projectID, path,
	)
	if err != nil {
		return false, fmt.Errorf("ファイルの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ProjectFileRepository = (*PostgresFileRepo)(nil)
