// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID               string
	Username         string
	Email            string
	Plan             Plan
	StripeCustomerID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Plan はユーザーの契約プランを表す。
type Plan string

const (
	// PlanFree は無料プラン。
	PlanFree Plan = "free"
	// PlanPro は個人向け有料プラン。
	PlanPro Plan = "pro"
	// PlanTeam はチーム向け有料プラン。
	PlanTeam Plan = "team"
)

// IsValid はプラン値が定義済みのいずれかであるかを検証する。
func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanPro, PlanTeam:
		return true
	}
	return false
}

// UserUpdate はユーザーの部分更新フィールドを表す。
// nilのフィールドは変更しない。
type UserUpdate struct {
	Username         *string
	Email            *string
	Plan             *Plan
	StripeCustomerID *string
}
