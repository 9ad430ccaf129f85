// Package repository はデータ永続化のインターフェースを定義する。
//
// 全メソッド共通の規約:
//   - 検索対象が存在しない場合はエラーではなくnilを返す（不在は正常系）。
//   - エラーを返すのはバックエンド自体の障害（接続断、シリアライズ失敗等）のみ。
//   - Createは識別子とタイムスタンプを採番・付与した完全なレコードを返す。
//   - Deleteは冪等であり、対象が存在しない場合はfalseを返す（エラーにしない）。
package repository

import (
	"context"

	"github.com/hitoshi/workbench/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。IDと両タイムスタンプは実装側が付与する。
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// Update はユーザーを部分更新する。nilフィールドは変更しない。
	// 対象が存在しない場合はnilを返す。
	Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error)

	// Delete は指定IDのユーザーを削除する。削除した場合はtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
type ProjectRepository interface {
	// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Project, error)

	// ListByUserID はユーザーのプロジェクト一覧を作成日時の降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Project, error)

	// Create はプロジェクトを作成する。IDと両タイムスタンプは実装側が付与する。
	Create(ctx context.Context, project *model.Project) (*model.Project, error)

	// Update はプロジェクトを部分更新する。nilフィールドは変更しない。
	// 対象が存在しない場合はnilを返す。
	Update(ctx context.Context, id int64, upd model.ProjectUpdate) (*model.Project, error)

	// Delete は指定IDのプロジェクトを削除する。削除した場合はtrueを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}

// ProjectFileRepository はプロジェクトファイルの永続化インターフェース。
// (project_id, path) を自然キーとして扱う。
type ProjectFileRepository interface {
	// ListByProject はプロジェクトのファイル一覧をパスの昇順で返す。
	ListByProject(ctx context.Context, projectID int64) ([]*model.ProjectFile, error)

	// FindByPath は自然キーでファイルを取得する。見つからない場合はnilを返す。
	FindByPath(ctx context.Context, projectID int64, path string) (*model.ProjectFile, error)

	// Upsert は自然キーでファイルを作成または置換する。
	// 既存レコードがある場合はIDとCreatedAtを保持し、内容とUpdatedAtのみ更新する。
	// ルックアップと書き込みは同一キーに対してアトミックに行われる。
	Upsert(ctx context.Context, file *model.ProjectFile) (*model.ProjectFile, error)

	// Delete は自然キーでファイルを削除する。削除した場合はtrueを返す。
	Delete(ctx context.Context, projectID int64, path string) (bool, error)
}

// DeploymentRepository はデプロイ記録の永続化インターフェース。
type DeploymentRepository interface {
	// FindByID は指定IDのデプロイ記録を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.ProjectDeployment, error)

	// ListByProject はプロジェクトのデプロイ記録一覧を作成日時の降順で返す。
	ListByProject(ctx context.Context, projectID int64) ([]*model.ProjectDeployment, error)

	// Create はデプロイ記録を作成する。IDと両タイムスタンプは実装側が付与する。
	Create(ctx context.Context, deployment *model.ProjectDeployment) (*model.ProjectDeployment, error)

	// Update はデプロイ記録を部分更新する。nilフィールドは変更しない。
	// 対象が存在しない場合はnilを返す。
	Update(ctx context.Context, id int64, upd model.DeploymentUpdate) (*model.ProjectDeployment, error)
}

// ConfigRepository はプロジェクト設定の永続化インターフェース。
// project_idごとに最大1件のみ存在する。
type ConfigRepository interface {
	// FindByProject はプロジェクトの設定を取得する。見つからない場合はnilを返す。
	FindByProject(ctx context.Context, projectID int64) (*model.ProjectConfig, error)

	// Upsert はproject_idをキーとして設定を作成または置換する。
	// 既存レコードがある場合はIDとCreatedAtを保持する。
	Upsert(ctx context.Context, config *model.ProjectConfig) (*model.ProjectConfig, error)
}

// Stores は全エンティティのリポジトリを束ねた永続化ハンドル。
// 起動時に1回構築し、必要なコンポーネントへコンストラクタ経由で渡す。
// グローバルシングルトンとしては扱わない（テストごとに新しいStoresを構築できる）。
type Stores struct {
	Users       UserRepository
	Projects    ProjectRepository
	Files       ProjectFileRepository
	Deployments DeploymentRepository
	Configs     ConfigRepository
}
