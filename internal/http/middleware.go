package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// APIKeyHeader 共享密钥请求头
const APIKeyHeader = "X-API-Key"

// RequireAPIKey 共享密钥鉴权：缺失 -> 401，不匹配 -> 403
// 在请求体解析之前执行
func RequireAPIKey(apiKey string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(APIKeyHeader)
		if got == "" {
			writeJSON(w, http.StatusUnauthorized, Fail("missing API key"))
			return
		}
		if got != apiKey {
			writeJSON(w, http.StatusForbidden, Fail("invalid API key"))
			return
		}
		next(w, r)
	}
}

// statusRecorder 捕获响应状态码用于访问日志
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger 为每个请求生成 request_id 并记录访问日志
func RequestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
