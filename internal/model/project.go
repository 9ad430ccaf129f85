// Package model はドメインモデルを定義する。
package model

import "time"

// Project はユーザーが所有する開発プロジェクトを表す。
// DeploymentStatusは未デプロイの場合は空文字列のまま。
type Project struct {
	ID               int64
	UserID           string
	Name             string
	Description      string
	DeployedURL      string
	DeploymentStatus DeploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DeploymentStatus はデプロイの進行状態を表す。
type DeploymentStatus string

const (
	// DeploymentStatusPending はデプロイ待機状態。
	DeploymentStatusPending DeploymentStatus = "pending"
	// DeploymentStatusBuilding はビルド実行中の状態。
	DeploymentStatusBuilding DeploymentStatus = "building"
	// DeploymentStatusDeployed はデプロイ完了状態。
	DeploymentStatusDeployed DeploymentStatus = "deployed"
	// DeploymentStatusFailed はデプロイ失敗状態。
	DeploymentStatusFailed DeploymentStatus = "failed"
)

// IsValid はステータス値が定義済みのいずれかであるかを検証する。
func (s DeploymentStatus) IsValid() bool {
	switch s {
	case DeploymentStatusPending, DeploymentStatusBuilding, DeploymentStatusDeployed, DeploymentStatusFailed:
		return true
	}
	return false
}

// ProjectUpdate はプロジェクトの部分更新フィールドを表す。
// nilのフィールドは変更しない。
type ProjectUpdate struct {
	Name             *string
	Description      *string
	DeployedURL      *string
	DeploymentStatus *DeploymentStatus
}

// ProjectFile はプロジェクト内の1ファイルを表す。
// (ProjectID, Path) が自然キーであり、同一キーのレコードは常に1件のみ。
type ProjectFile struct {
	ID        int64
	ProjectID int64
	Path      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectDeployment はプロジェクトの1回のデプロイ記録を表す。
type ProjectDeployment struct {
	ID            int64
	ProjectID     int64
	DeploymentURL string
	Status        DeploymentStatus
	BuildLogs     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DeploymentUpdate はデプロイ記録の部分更新フィールドを表す。
// nilのフィールドは変更しない。
type DeploymentUpdate struct {
	DeploymentURL *string
	Status        *DeploymentStatus
	BuildLogs     *string
}

// ProjectConfig はプロジェクトのビルド設定を表す。
// ProjectIDごとに最大1件のみ存在する。
type ProjectConfig struct {
	ID              int64
	ProjectID       int64
	Framework       string
	BuildCommand    string
	OutputDirectory string
	EnvironmentVars map[string]string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
