// Package api はガントチャートサーバーのAPI実装を提供します。
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/stsysd/gantt/config"
	"github.com/stsysd/gantt/logger"
	"github.com/stsysd/gantt/model"
	"github.com/stsysd/gantt/store"
)

// Server はAPIサーバーの構造体です。
type Server struct {
	router  *http.ServeMux
	handler http.Handler
	store   store.Store
	config  *config.Config
	logger  *logger.Logger
	metrics *metrics

	// Load→変更→Saveを直列化する
	mu sync.Mutex
}

// ErrorResponse はエラーレスポンスの構造体です。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// NewServer は新しいAPIサーバーインスタンスを生成します。
func NewServer(st store.Store, cfg *config.Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		router:  http.NewServeMux(),
		store:   st,
		config:  cfg,
		logger:  log.WithComponent("api"),
		metrics: newMetrics(),
	}
	s.routes()
	s.handler = s.middleware(s.router)
	return s
}

// routes はAPIエンドポイントのルーティングを設定します。
func (s *Server) routes() {
	// ヘルスチェックエンドポイントは認証不要
	s.router.HandleFunc("GET /healthz", s.handleHealthCheck)
	if s.config.Metrics.Enabled {
		s.router.Handle("GET /metrics", s.metrics.handler())
	}

	securedHandler := http.NewServeMux()

	// Dataset endpoints
	securedHandler.HandleFunc("GET /api/data", s.handleGetData)
	securedHandler.HandleFunc("POST /api/data", s.handleSaveData)
	securedHandler.HandleFunc("GET /api/stats", s.handleGetStats)

	// Resource endpoints
	securedHandler.HandleFunc("GET /api/resources", s.handleListResources)
	securedHandler.HandleFunc("POST /api/resources", s.handleCreateResource)
	securedHandler.HandleFunc("PUT /api/resources/{name}", s.handleRenameResource)
	securedHandler.HandleFunc("DELETE /api/resources/{name}", s.handleDeleteResource)
	securedHandler.HandleFunc("POST /api/resources/{name}/position", s.handleMoveResource)

	// Calendar
	securedHandler.HandleFunc("GET /api/dates", s.handleGetDates)
	securedHandler.HandleFunc("PUT /api/dates", s.handleSetDates)

	// Order endpoints
	securedHandler.HandleFunc("GET /api/orders", s.handleListOrders)
	securedHandler.HandleFunc("POST /api/orders", s.handleCreateOrder)
	securedHandler.HandleFunc("GET /api/orders/{code}", s.handleGetOrder)
	securedHandler.HandleFunc("PUT /api/orders/{code}", s.handleSaveOrder)
	securedHandler.HandleFunc("PATCH /api/orders/{code}", s.handleUpdateOrder)
	securedHandler.HandleFunc("DELETE /api/orders/{code}", s.handleDeleteOrder)
	securedHandler.HandleFunc("POST /api/orders/{code}/move", s.handleMoveOrder)

	// 認証ミドルウェアを適用し、メインルータにマウント
	s.router.Handle("/api/", s.authMiddleware(securedHandler))

	// Chart endpoints - support both with and without .svg extension
	s.router.HandleFunc("GET /gantt.svg", s.handleGetChart)
	s.router.HandleFunc("GET /gantt", s.handleGetChart)
	s.router.HandleFunc("GET /{$}", s.handleIndex)
}

// ServeHTTP はServer構造体をhttp.Handlerとして実装します。
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// writeJSON はJSONレスポンスを返却します。
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("Error encoding response")
	}
}

// writeJSONError はJSON形式でエラーレスポンスを返却します。
func (s *Server) writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, ErrorResponse{
		Error: message,
		Code:  statusCode,
	})
}

// writeError はエラーの種類に応じたステータスコードでエラーを返却します。
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
		s.writeJSONError(w, "Failed to process request", status)
		return
	}
	s.writeJSONError(w, err.Error(), status)
}

func errorStatus(err error) int {
	var validationErr *model.ValidationError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrResourceNotFound), errors.Is(err, model.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrResourceExists), errors.Is(err, model.ErrOrderExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// load はデータセットを読み込みます。
func (s *Server) load(ctx context.Context) (*model.Dataset, error) {
	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	s.metrics.observeDataset(ds)
	return ds, nil
}

// update はデータセットを読み込んでfnで変更し、保存します。
// fnがエラーを返した場合は保存しません。
func (s *Server) update(ctx context.Context, fn func(ds *model.Dataset) error) (*model.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(ds); err != nil {
		return nil, err
	}
	if err := s.save(ctx, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

func (s *Server) save(ctx context.Context, ds *model.Dataset) error {
	if err := s.store.Save(ctx, ds); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	s.metrics.observeDataset(ds)
	s.metrics.saves.Inc()
	s.logger.LogDatasetSaved(s.store.Backend(), len(ds.Resources), len(ds.Orders))
	return nil
}

// handleHealthCheck はヘルスチェックエンドポイントのハンドラーです。
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetData はデータセット全体を返却するハンドラーです。
func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	ds, err := s.load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ds)
}

// SaveResponse はデータセット保存時のレスポンスです。
type SaveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleSaveData はデータセット全体を置き換えるハンドラーです。
func (s *Server) handleSaveData(w http.ResponseWriter, r *http.Request) {
	params, err := NewSaveDataParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	err = s.save(r.Context(), params.Dataset)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SaveResponse{Success: true, Message: "Data saved successfully"})
}

// handleGetStats はヘッダーに表示する集計値を返却するハンドラーです。
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ds, err := s.load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ds.Stats())
}

// handleGetDates はプロジェクト期間を返却するハンドラーです。
func (s *Server) handleGetDates(w http.ResponseWriter, r *http.Request) {
	ds, err := s.load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ds.Dates)
}

// handleSetDates はプロジェクト期間を設定するハンドラーです。
func (s *Server) handleSetDates(w http.ResponseWriter, r *http.Request) {
	params, err := NewSetDatesParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ds, err := s.update(r.Context(), func(ds *model.Dataset) error {
		return ds.SetDateRange(params.Start, params.End)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ds.Dates)
}

// Run はサーバーを起動し、ctxがキャンセルされるとグレースフルに停止します。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Server.Address(),
		Handler:      s,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Server starting", "addr", srv.Addr, "backend", s.store.Backend())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.config.Server.ShutdownTimeout > 0 {
		return s.config.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
