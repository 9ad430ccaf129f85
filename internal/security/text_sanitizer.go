// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はユーザー入力のテキストフィールドをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// プロジェクトの説明文やビルドログはHTMLとして解釈される必要がないため、
// bluemondayのStrictPolicyで全タグを除去したプレーンテキストのみを保持する。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はテキストのサニタイズ機能のインターフェースを定義する。
// プロジェクトの説明文およびデプロイ記録のビルドログの保存前に使用される。
type TextSanitizerService interface {
	// Sanitize はテキストからHTMLタグを全て除去したプレーンテキストを返す。
	// scriptタグ、on*イベント属性を含む全てのマークアップが除去される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、全てのHTMLが除去される。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はテキストからHTMLタグを全て除去したプレーンテキストを返す。
func (s *textSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
