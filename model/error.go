// Package model は、ガントチャートのデータモデル定義を提供します。
package model

import "errors"

// センチネルエラー - リソースやオーダーが見つからない、または重複している場合
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrResourceExists   = errors.New("resource already exists")
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderExists      = errors.New("order already exists")
)

// ValidationError はバリデーションエラーを表す型
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError はValidationErrorを生成するヘルパー関数
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
