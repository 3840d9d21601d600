package api

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// middleware はルータ全体に共通のミドルウェアを適用します。
// 外側から順に logging → metrics → recovery → CORS → body limit → rate limit。
// panicした要求も500としてアクセスログとメトリクスに記録されます。
func (s *Server) middleware(next http.Handler) http.Handler {
	h := next
	if s.config.Security.RateLimitRequests > 0 {
		h = s.rateLimitMiddleware(h)
	}
	h = s.bodyLimitMiddleware(h)
	h = s.corsMiddleware(h)
	h = s.recoveryMiddleware(h)
	if s.config.Metrics.Enabled {
		h = s.metricsMiddleware(h)
	}
	h = s.loggingMiddleware(h)
	return h
}

// statusRecorder はレスポンスのステータスコードを記録します。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// authMiddleware はAPIリクエストの認証を行うミドルウェアです。
// APIキーが設定されていない場合は認証を行いません。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.Auth.APIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		// ヘッダーからAPIキーを取得
		apiKey := r.Header.Get("X-API-Key")

		// APIキーが一致するか確認
		if apiKey != s.config.Auth.APIKey {
			s.logger.Warnw("Rejected request with invalid API key",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			s.writeJSONError(w, "Unauthorized: Invalid API key", http.StatusUnauthorized)
			return
		}

		// 認証成功：次のハンドラーを呼び出し
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware はハンドラー内のpanicを500エラーに変換します。
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.logger.Errorw("Panic while handling request",
					"panic", v,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				s.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware はアクセスログを出力します。
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)
		s.logger.LogHTTPRequest(r.Method, r.URL.Path, r.RemoteAddr, rec.status,
			float64(time.Since(start).Microseconds())/1000)
	})
}

// corsMiddleware はCORSヘッダーを付与し、プリフライトリクエストに応答します。
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowed := strings.Split(s.config.Security.CORSAllowedOrigins, ",")
	for i := range allowed {
		allowed[i] = strings.TrimSpace(allowed[i])
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if allowOrigin := matchOrigin(allowed, origin); allowOrigin != "" {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", allowOrigin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func matchOrigin(allowed []string, origin string) string {
	for _, a := range allowed {
		switch a {
		case "*":
			return "*"
		case origin:
			return origin
		}
	}
	return ""
}

// bodyLimitMiddleware はリクエストボディの大きさを制限します。
func (s *Server) bodyLimitMiddleware(next http.Handler) http.Handler {
	limit := s.config.Server.MaxBodyBytes
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limit > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

// clientLimiters はクライアントIPごとのトークンバケットです。
type clientLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterIdleTTL = 10 * time.Minute

func newClientLimiters(rps float64, burst int) *clientLimiters {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiters{
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*clientLimiter),
	}
}

func (c *clientLimiters) allow(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl, ok := c.limiters[key]
	if !ok {
		// 新しいクライアントが来たときに、しばらく使われていないものを掃除する
		for k, v := range c.limiters {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(c.limiters, k)
			}
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// rateLimitMiddleware は更新系リクエストをクライアントごとに制限します。
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	limiters := newClientLimiters(s.config.Security.RateLimitRequests, s.config.Security.RateLimitBurst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if !limiters.allow(clientIP(r), time.Now()) {
			w.Header().Set("Retry-After", "1")
			s.writeJSONError(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
