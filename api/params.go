package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/stsysd/gantt/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// エラーメッセージにはJSONのフィールド名を使う
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct はvalidatorタグを検証し、失敗した場合はValidationErrorを返します。
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "required_with", "required_without":
			msgs = append(msgs, fmt.Sprintf("%s is required with %s", fe.Field(), strings.ToLower(fe.Param())))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag()))
		}
	}
	return model.NewValidationError(strings.Join(msgs, "; "))
}

// decodeJSON はリクエストボディをvにデコードします。
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return model.NewValidationError(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func parseDateField(name, value string) (model.Date, error) {
	d, err := model.ParseDate(value)
	if err != nil {
		return model.Date{}, model.NewValidationError(fmt.Sprintf("%s: %v", name, err))
	}
	return d, nil
}

// SaveDataParams represents parameters for replacing the whole dataset.
type SaveDataParams struct {
	Dataset *model.Dataset
}

// NewSaveDataParams creates parameters for a full save from HTTP request.
// Missing lists are saved as empty; blank and repeated resource names are dropped.
func NewSaveDataParams(r *http.Request) (*SaveDataParams, error) {
	var ds model.Dataset
	if err := decodeJSON(r, &ds); err != nil {
		return nil, err
	}

	resources := make([]string, 0, len(ds.Resources))
	seen := make(map[string]bool, len(ds.Resources))
	for _, name := range ds.Resources {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		resources = append(resources, name)
	}
	ds.Resources = resources
	if !ds.Dates.IsZero() {
		if err := ds.Dates.Validate(); err != nil {
			return nil, err
		}
	}
	ds.Normalize()

	return &SaveDataParams{Dataset: &ds}, nil
}

// ResourceParams represents parameters for creating or renaming a resource.
type ResourceParams struct {
	Current string `json:"-"`
	Name    string `json:"name" validate:"required"`
}

// NewCreateResourceParams creates parameters for resource creation from HTTP request.
func NewCreateResourceParams(r *http.Request) (*ResourceParams, error) {
	var params ResourceParams
	if err := decodeJSON(r, &params); err != nil {
		return nil, err
	}
	if err := checkStruct(&params); err != nil {
		return nil, err
	}
	return &params, nil
}

// NewRenameResourceParams creates parameters for renaming the resource in the path.
func NewRenameResourceParams(r *http.Request) (*ResourceParams, error) {
	params, err := NewCreateResourceParams(r)
	if err != nil {
		return nil, err
	}
	params.Current = r.PathValue("name")
	return params, nil
}

// MoveResourceParams represents parameters for reordering a resource row.
type MoveResourceParams struct {
	Name  string `json:"-"`
	Index *int   `json:"index" validate:"required,min=0"`
}

// NewMoveResourceParams creates parameters for resource reordering from HTTP request.
func NewMoveResourceParams(r *http.Request) (*MoveResourceParams, error) {
	var params MoveResourceParams
	if err := decodeJSON(r, &params); err != nil {
		return nil, err
	}
	if err := checkStruct(&params); err != nil {
		return nil, err
	}
	params.Name = r.PathValue("name")
	return &params, nil
}

// SetDatesParams represents parameters for setting the project calendar.
type SetDatesParams struct {
	Start model.Date
	End   model.Date
}

// NewSetDatesParams creates parameters for the calendar from HTTP request.
func NewSetDatesParams(r *http.Request) (*SetDatesParams, error) {
	var body struct {
		Start string `json:"start" validate:"required"`
		End   string `json:"end" validate:"required"`
	}
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	if err := checkStruct(&body); err != nil {
		return nil, err
	}

	start, err := parseDateField("start", body.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseDateField("end", body.End)
	if err != nil {
		return nil, err
	}
	return &SetDatesParams{Start: start, End: end}, nil
}

// orderBody is the JSON form of an order in requests.
type orderBody struct {
	OrderCode   string `json:"OrderCode"`
	DisplayInfo string `json:"display_info" validate:"required"`
	Resource    string `json:"resource" validate:"required"`
	StartTime   string `json:"starttime" validate:"required"`
	EndTime     string `json:"endtime" validate:"required"`
	Color       string `json:"color"`
}

func (b orderBody) order() (model.Order, error) {
	start, err := parseDateField("starttime", b.StartTime)
	if err != nil {
		return model.Order{}, err
	}
	end, err := parseDateField("endtime", b.EndTime)
	if err != nil {
		return model.Order{}, err
	}
	return model.Order{
		OrderCode:   b.OrderCode,
		DisplayInfo: b.DisplayInfo,
		Resource:    strings.TrimSpace(b.Resource),
		StartTime:   start,
		EndTime:     end,
		Color:       strings.TrimSpace(b.Color),
	}, nil
}

// OrderParams represents parameters for creating or saving an order.
type OrderParams struct {
	Order model.Order
}

// NewCreateOrderParams creates parameters for order creation from HTTP request.
func NewCreateOrderParams(r *http.Request) (*OrderParams, error) {
	var body orderBody
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	if err := checkStruct(&body); err != nil {
		return nil, err
	}
	o, err := body.order()
	if err != nil {
		return nil, err
	}
	return &OrderParams{Order: o}, nil
}

// NewSaveOrderParams creates parameters for saving the order in the path.
// The code in the path wins over one in the body.
func NewSaveOrderParams(r *http.Request) (*OrderParams, error) {
	params, err := NewCreateOrderParams(r)
	if err != nil {
		return nil, err
	}
	params.Order.OrderCode = r.PathValue("code")
	return params, nil
}

// UpdateOrderParams represents parameters for a partial order update.
type UpdateOrderParams struct {
	Code  string
	Patch model.OrderPatch
}

// NewUpdateOrderParams creates parameters for a partial update from HTTP request.
func NewUpdateOrderParams(r *http.Request) (*UpdateOrderParams, error) {
	var body struct {
		DisplayInfo *string `json:"display_info"`
		Resource    *string `json:"resource"`
		StartTime   *string `json:"starttime"`
		EndTime     *string `json:"endtime"`
		Color       *string `json:"color"`
	}
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}

	patch := model.OrderPatch{
		DisplayInfo: body.DisplayInfo,
		Resource:    body.Resource,
		Color:       body.Color,
	}
	if body.StartTime != nil {
		d, err := parseDateField("starttime", *body.StartTime)
		if err != nil {
			return nil, err
		}
		patch.StartTime = &d
	}
	if body.EndTime != nil {
		d, err := parseDateField("endtime", *body.EndTime)
		if err != nil {
			return nil, err
		}
		patch.EndTime = &d
	}

	return &UpdateOrderParams{Code: r.PathValue("code"), Patch: patch}, nil
}

// MoveOrderParams represents a drop of an order onto the chart, either as a
// target cell or as a pixel point on the date grid.
type MoveOrderParams struct {
	Code     string `json:"-"`
	Resource string `json:"resource" validate:"required_without=X"`
	Start    string `json:"start" validate:"required_with=Resource"`
	X        *int   `json:"x" validate:"required_with=Y"`
	Y        *int   `json:"y" validate:"required_with=X"`

	StartDate model.Date `json:"-"`
}

// ByPoint reports whether the drop is given in pixels.
func (p *MoveOrderParams) ByPoint() bool {
	return p.Resource == "" && p.X != nil && p.Y != nil
}

// NewMoveOrderParams creates parameters for moving an order from HTTP request.
func NewMoveOrderParams(r *http.Request) (*MoveOrderParams, error) {
	var params MoveOrderParams
	if err := decodeJSON(r, &params); err != nil {
		return nil, err
	}
	if err := checkStruct(&params); err != nil {
		return nil, err
	}
	params.Code = r.PathValue("code")
	if !params.ByPoint() {
		d, err := parseDateField("start", params.Start)
		if err != nil {
			return nil, err
		}
		params.StartDate = d
	}
	return &params, nil
}
