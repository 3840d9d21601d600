package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Dataset はチャートに表示するすべてのデータです。
// 表示順のリソース行、プロジェクト期間、オーダーを保持します。
//
// 変更系メソッドは先に検証を行い、エラー時はデータセットを変更しません。
// オーダーとリソースの整合性はここでのみ確認し、ストアは受け取った内容をそのまま保存します。
type Dataset struct {
	Resources []string  `json:"resources"`
	Dates     DateRange `json:"dates"`
	Orders    []Order   `json:"orders"`
}

// NewDataset は空のデータセットを生成します。
func NewDataset() *Dataset {
	return &Dataset{Resources: []string{}, Orders: []Order{}}
}

// MarshalJSON はリストを常に配列としてエンコードします（nullにしない）。
func (d Dataset) MarshalJSON() ([]byte, error) {
	type alias Dataset
	a := alias(d)
	if a.Resources == nil {
		a.Resources = []string{}
	}
	if a.Orders == nil {
		a.Orders = []Order{}
	}
	return json.Marshal(a)
}

// Normalize はnilのリストを空にし、未設定の色を補完します。
func (d *Dataset) Normalize() {
	if d.Resources == nil {
		d.Resources = []string{}
	}
	if d.Orders == nil {
		d.Orders = []Order{}
	}
	for i := range d.Orders {
		d.Orders[i] = d.Orders[i].withDefaultColor()
	}
}

// Clone はディープコピーを返します。
func (d *Dataset) Clone() *Dataset {
	return &Dataset{
		Resources: slices.Clone(d.Resources),
		Dates:     d.Dates,
		Orders:    slices.Clone(d.Orders),
	}
}

// ResourceIndex はリソースの行番号を返します。存在しない場合は-1です。
func (d *Dataset) ResourceIndex(name string) int {
	return slices.Index(d.Resources, name)
}

// HasResource はリソース行が存在するかどうかを返します。
func (d *Dataset) HasResource(name string) bool {
	return d.ResourceIndex(name) >= 0
}

func cleanResourceName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError("resource name is required")
	}
	return name, nil
}

// AddResource は末尾に行を追加します。
func (d *Dataset) AddResource(name string) error {
	name, err := cleanResourceName(name)
	if err != nil {
		return err
	}
	if d.HasResource(name) {
		return fmt.Errorf("%w: %s", ErrResourceExists, name)
	}
	d.Resources = append(d.Resources, name)
	return nil
}

// RenameResource は行の名前を変更し、そのオーダーの担当も付け替えます。
func (d *Dataset) RenameResource(oldName, newName string) error {
	idx := d.ResourceIndex(oldName)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrResourceNotFound, oldName)
	}
	newName, err := cleanResourceName(newName)
	if err != nil {
		return err
	}
	if newName == oldName {
		return nil
	}
	if d.HasResource(newName) {
		return fmt.Errorf("%w: %s", ErrResourceExists, newName)
	}
	d.Resources[idx] = newName
	for i := range d.Orders {
		if d.Orders[i].Resource == oldName {
			d.Orders[i].Resource = newName
		}
	}
	return nil
}

// DeleteResource は行を削除します。オーダーは残り、行のないオーダーになります。
// 戻り値は行を失ったオーダーの数です。
func (d *Dataset) DeleteResource(name string) (int, error) {
	idx := d.ResourceIndex(name)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	d.Resources = slices.Delete(d.Resources, idx, idx+1)
	return len(d.OrdersFor(name)), nil
}

// MoveResource は行をindexの位置へ移動します。indexは範囲内に丸めます。
func (d *Dataset) MoveResource(name string, index int) error {
	idx := d.ResourceIndex(name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	d.Resources = slices.Delete(d.Resources, idx, idx+1)
	index = max(0, min(index, len(d.Resources)))
	d.Resources = slices.Insert(d.Resources, index, name)
	return nil
}

// SetDateRange はプロジェクト期間を置き換えます。
func (d *Dataset) SetDateRange(start, end Date) error {
	r, err := NewDateRange(start, end)
	if err != nil {
		return err
	}
	d.Dates = r
	return nil
}

// Order は指定コードのオーダーのコピーを返します。
func (d *Dataset) Order(code string) (Order, error) {
	idx := d.orderIndex(code)
	if idx < 0 {
		return Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, code)
	}
	return d.Orders[idx], nil
}

func (d *Dataset) orderIndex(code string) int {
	return slices.IndexFunc(d.Orders, func(o Order) bool { return o.OrderCode == code })
}

// OrdersFor はリソースに割り当てられたオーダーを返します。
func (d *Dataset) OrdersFor(resource string) []Order {
	var out []Order
	for _, o := range d.Orders {
		if o.Resource == resource {
			out = append(out, o)
		}
	}
	return out
}

// Orphans は担当リソースの行が存在しないオーダーを返します。
func (d *Dataset) Orphans() []Order {
	var out []Order
	for _, o := range d.Orders {
		if !d.HasResource(o.Resource) {
			out = append(out, o)
		}
	}
	return out
}

func (d *Dataset) checkOrder(o Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if !d.HasResource(o.Resource) {
		return fmt.Errorf("%w: %s", ErrResourceNotFound, o.Resource)
	}
	return nil
}

// CreateOrder はオーダーを追加します。コード未指定の場合は生成します。
func (d *Dataset) CreateOrder(o Order) (Order, error) {
	o.DisplayInfo = strings.TrimSpace(o.DisplayInfo)
	o.OrderCode = strings.TrimSpace(o.OrderCode)
	if err := d.checkOrder(o); err != nil {
		return Order{}, err
	}
	if o.OrderCode == "" {
		o.OrderCode = uuid.NewString()
	} else if d.orderIndex(o.OrderCode) >= 0 {
		return Order{}, fmt.Errorf("%w: %s", ErrOrderExists, o.OrderCode)
	}
	o = o.withDefaultColor()
	d.Orders = append(d.Orders, o)
	return o, nil
}

// SaveOrder は同じコードのオーダーを置き換え、なければ追加します。
// oに色がない場合は保存済みの色を引き継ぎます。
func (d *Dataset) SaveOrder(o Order) (Order, error) {
	o.DisplayInfo = strings.TrimSpace(o.DisplayInfo)
	o.OrderCode = strings.TrimSpace(o.OrderCode)
	idx := d.orderIndex(o.OrderCode)
	if o.OrderCode == "" || idx < 0 {
		return d.CreateOrder(o)
	}
	if err := d.checkOrder(o); err != nil {
		return Order{}, err
	}
	if o.Color == "" {
		o.Color = d.Orders[idx].Color
	}
	o = o.withDefaultColor()
	d.Orders[idx] = o
	return o, nil
}

// UpdateOrder は部分更新を適用します。
func (d *Dataset) UpdateOrder(code string, patch OrderPatch) (Order, error) {
	idx := d.orderIndex(code)
	if idx < 0 {
		return Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, code)
	}
	o := patch.apply(d.Orders[idx])
	if err := d.checkOrder(o); err != nil {
		return Order{}, err
	}
	o = o.withDefaultColor()
	d.Orders[idx] = o
	return o, nil
}

// DeleteOrder はオーダーを削除します。
func (d *Dataset) DeleteOrder(code string) error {
	idx := d.orderIndex(code)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, code)
	}
	d.Orders = slices.Delete(d.Orders, idx, idx+1)
	return nil
}

// MoveOrder はオーダーを別の行・開始日へ移動します。
// バーの長さは保たれ、終了日は期間の最終日までに切り詰めます。
func (d *Dataset) MoveOrder(code, resource string, start Date) (Order, error) {
	idx := d.orderIndex(code)
	if idx < 0 {
		return Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, code)
	}
	if !d.HasResource(resource) {
		return Order{}, fmt.Errorf("%w: %s", ErrResourceNotFound, resource)
	}
	if !d.Dates.Contains(start) {
		return Order{}, NewValidationError(fmt.Sprintf("start date %s is outside the project range", start))
	}

	o := d.Orders[idx]
	span := max(o.Duration()-1, 0)
	end := start.AddDays(span)
	if end.After(d.Dates.End) {
		end = d.Dates.End
	}
	o.Resource = resource
	o.StartTime = start
	o.EndTime = end
	d.Orders[idx] = o
	return o, nil
}

// Stats はヘッダーに表示する集計値です。
type Stats struct {
	Resources int  `json:"resources"`
	Orders    int  `json:"orders"`
	Orphans   int  `json:"orphans"`
	Days      int  `json:"days"`
	Start     Date `json:"start"`
	End       Date `json:"end"`
}

// Stats は行数、オーダー数、期間の日数を集計します。
func (d *Dataset) Stats() Stats {
	return Stats{
		Resources: len(d.Resources),
		Orders:    len(d.Orders),
		Orphans:   len(d.Orphans()),
		Days:      d.Dates.Len(),
		Start:     d.Dates.Start,
		End:       d.Dates.End,
	}
}
