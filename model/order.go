package model

import (
	"strings"
)

// Order はガントチャート上の1本のバー（タスク）を表すモデルです。
type Order struct {
	OrderCode   string `json:"OrderCode"`    // 一意なオーダーコード
	DisplayInfo string `json:"display_info"` // バーに表示するラベル
	Resource    string `json:"resource"`     // 担当リソース名
	StartTime   Date   `json:"starttime"`    // 開始日
	EndTime     Date   `json:"endtime"`      // 終了日（開始日を含む）
	Color       string `json:"color"`        // バーの色（空の場合は自動決定）
}

// Duration は開始日から終了日までの日数（両端を含む）を返します。
func (o *Order) Duration() int {
	if o.StartTime.IsZero() || o.EndTime.IsZero() {
		return 0
	}
	return o.StartTime.DaysUntil(o.EndTime) + 1
}

// Validate はオーダーのデータバリデーションを行います。
func (o *Order) Validate() error {
	if strings.TrimSpace(o.DisplayInfo) == "" {
		return NewValidationError("display_info is required")
	}
	if strings.TrimSpace(o.Resource) == "" {
		return NewValidationError("resource is required")
	}
	if o.StartTime.IsZero() {
		return NewValidationError("starttime is required")
	}
	if o.EndTime.IsZero() {
		return NewValidationError("endtime is required")
	}
	if o.StartTime.After(o.EndTime) {
		return NewValidationError("starttime must not be after endtime")
	}
	return nil
}

// withDefaultColor は色が未設定の場合にパレットから色を決定します。
func (o Order) withDefaultColor() Order {
	o.Color = TaskColor(o.DisplayInfo, o.Resource, o.Color)
	return o
}

// OrderPatch はオーダーの部分更新を表します。nilのフィールドは変更しません。
type OrderPatch struct {
	DisplayInfo *string
	Resource    *string
	StartTime   *Date
	EndTime     *Date
	Color       *string
}

func (p OrderPatch) apply(o Order) Order {
	if p.DisplayInfo != nil {
		o.DisplayInfo = strings.TrimSpace(*p.DisplayInfo)
	}
	if p.Resource != nil {
		o.Resource = *p.Resource
	}
	if p.StartTime != nil {
		o.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		o.EndTime = *p.EndTime
	}
	if p.Color != nil && *p.Color != "" {
		o.Color = *p.Color
	}
	return o
}
