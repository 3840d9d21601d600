package api

import (
	"net/http"

	"github.com/stsysd/gantt/chart"
	"github.com/stsysd/gantt/model"
)

// handleListOrders はオーダー一覧を返却するハンドラーです。
// resourceクエリで絞り込み、orphans=trueで行のないオーダーのみを返します。
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ds, err := s.load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	query := r.URL.Query()
	orders := ds.Orders
	switch {
	case query.Get("orphans") == "true":
		orders = ds.Orphans()
	case query.Has("resource"):
		orders = ds.OrdersFor(query.Get("resource"))
	}
	if orders == nil {
		orders = []model.Order{}
	}
	s.writeJSON(w, http.StatusOK, orders)
}

// handleGetOrder は指定オーダーを返却するハンドラーです。
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ds, err := s.load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	o, err := ds.Order(r.PathValue("code"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, o)
}

// handleCreateOrder はオーダーを作成するハンドラーです。
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	params, err := NewCreateOrderParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var created model.Order
	_, err = s.update(r.Context(), func(ds *model.Dataset) error {
		o, err := ds.CreateOrder(params.Order)
		created = o
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// handleSaveOrder はオーダーを作成または置き換えるハンドラーです。
func (s *Server) handleSaveOrder(w http.ResponseWriter, r *http.Request) {
	params, err := NewSaveOrderParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var saved model.Order
	_, err = s.update(r.Context(), func(ds *model.Dataset) error {
		o, err := ds.SaveOrder(params.Order)
		saved = o
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

// handleUpdateOrder はオーダーを部分更新するハンドラーです。
func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	params, err := NewUpdateOrderParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var updated model.Order
	_, err = s.update(r.Context(), func(ds *model.Dataset) error {
		o, err := ds.UpdateOrder(params.Code, params.Patch)
		updated = o
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// handleDeleteOrder はオーダーを削除するハンドラーです。
func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	_, err := s.update(r.Context(), func(ds *model.Dataset) error {
		return ds.DeleteOrder(code)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMoveOrder はドラッグ&ドロップによるオーダーの移動を処理するハンドラーです。
func (s *Server) handleMoveOrder(w http.ResponseWriter, r *http.Request) {
	params, err := NewMoveOrderParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var moved model.Order
	_, err = s.update(r.Context(), func(ds *model.Dataset) error {
		resource, start := params.Resource, params.StartDate
		if params.ByPoint() {
			// ドロップ位置（日付グリッド左上からのピクセル）をセルに変換
			layout := chart.NewLayout(ds, s.chartOptions(r))
			row, column, ok := layout.Locate(*params.X, *params.Y)
			if !ok {
				return model.NewValidationError("drop point is outside the chart")
			}
			resource, start = layout.Cell(row, column)
		}
		o, err := ds.MoveOrder(params.Code, resource, start)
		moved = o
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, moved)
}
