package api

import (
	"net/http"

	"github.com/stsysd/gantt/model"
)

// ResourceResponse はリソース操作のレスポンスです。
type ResourceResponse struct {
	Name      string   `json:"name"`
	Resources []string `json:"resources"`
}

// DeleteResourceResponse はリソース削除のレスポンスです。
type DeleteResourceResponse struct {
	Resources []string `json:"resources"`
	// 行を失ったオーダーの数
	Orphaned int `json:"orphaned"`
}

// handleListResources はリソース一覧を返却するハンドラーです。
func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	ds, err := s.load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ds.Resources)
}

// handleCreateResource はリソースを追加するハンドラーです。
func (s *Server) handleCreateResource(w http.ResponseWriter, r *http.Request) {
	params, err := NewCreateResourceParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var name string
	ds, err := s.update(r.Context(), func(ds *model.Dataset) error {
		if err := ds.AddResource(params.Name); err != nil {
			return err
		}
		name = ds.Resources[len(ds.Resources)-1]
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ResourceResponse{Name: name, Resources: ds.Resources})
}

// handleRenameResource はリソース名を変更するハンドラーです。オーダーの割り当ても追従します。
func (s *Server) handleRenameResource(w http.ResponseWriter, r *http.Request) {
	params, err := NewRenameResourceParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var name string
	ds, err := s.update(r.Context(), func(ds *model.Dataset) error {
		idx := ds.ResourceIndex(params.Current)
		if err := ds.RenameResource(params.Current, params.Name); err != nil {
			return err
		}
		// 改名後も行の位置は変わらない
		name = ds.Resources[idx]
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ResourceResponse{Name: name, Resources: ds.Resources})
}

// handleDeleteResource はリソースを削除するハンドラーです。オーダーは残ります。
func (s *Server) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var orphaned int
	ds, err := s.update(r.Context(), func(ds *model.Dataset) error {
		n, err := ds.DeleteResource(name)
		orphaned = n
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DeleteResourceResponse{Resources: ds.Resources, Orphaned: orphaned})
}

// handleMoveResource はリソース行の並び順を変更するハンドラーです。
func (s *Server) handleMoveResource(w http.ResponseWriter, r *http.Request) {
	params, err := NewMoveResourceParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ds, err := s.update(r.Context(), func(ds *model.Dataset) error {
		return ds.MoveResource(params.Name, *params.Index)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ResourceResponse{Name: params.Name, Resources: ds.Resources})
}
