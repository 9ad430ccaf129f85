// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, storage, assistant, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeProjectNotFound    = "PROJECT_NOT_FOUND"
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
	ErrCodeConfigNotFound     = "CONFIG_NOT_FOUND"
	ErrCodeInvalidProjectID   = "INVALID_PROJECT_ID"
	ErrCodeEmptyMessage       = "EMPTY_MESSAGE"
	ErrCodeUnsafeURL          = "UNSAFE_URL"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// NewValidationError はフィールド検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("リクエスト内容が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "storage",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewProjectNotFoundError はプロジェクト未検出エラーを生成する。
func NewProjectNotFoundError(projectID int64) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  fmt.Sprintf("指定されたプロジェクトが見つかりません: %d", projectID),
		Category: "storage",
		Action:   "プロジェクトIDを確認してください。",
	}
}

// NewInvalidProjectIDError はプロジェクトIDの形式エラーを生成する。
func NewInvalidProjectIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidProjectID,
		Message:  fmt.Sprintf("プロジェクトIDは整数で指定してください: %s", raw),
		Category: "validation",
		Action:   "URLのプロジェクトIDを確認してください。",
	}
}

// NewEmptyMessageError はチャットメッセージ未指定エラーを生成する。
func NewEmptyMessageError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyMessage,
		Message:  "メッセージが指定されていません。",
		Category: "validation",
		Action:   "message フィールドに内容を指定してください。",
	}
}

// NewUnsafeURLError はデプロイURL検証エラーを生成する。
func NewUnsafeURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsafeURL,
		Message:  fmt.Sprintf("指定されたURLは許可されていません: %s", reason),
		Category: "validation",
		Action:   "公開されているhttps URLを指定してください。",
	}
}
