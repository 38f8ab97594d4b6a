package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
// 访问日志链在构造时包一次，mux 可在之后继续注册路由
type Router struct {
	mux     *http.ServeMux
	handler http.Handler
}

func NewRouter(logger *zap.Logger) *Router {
	mux := http.NewServeMux()
	return &Router{
		mux:     mux,
		handler: RequestLogger(logger, mux),
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// RegisterHealthDataRoutes 注册健康数据路由（全部要求 API Key）
func (r *Router) RegisterHealthDataRoutes(h *HealthDataHandler, apiKey string) {
	r.Handle("/health-data/heartrate", RequireAPIKey(apiKey, func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			h.IngestHeartRate(w, req)
		case http.MethodGet:
			h.QueryHeartRate(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	r.Handle("/health-data/heartrate/export", RequireAPIKey(apiKey, func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ExportHeartRateExcel(w, req)
	}))

	r.Handle("/health-data/ecg", RequireAPIKey(apiKey, func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			h.IngestECG(w, req)
		case http.MethodGet:
			h.QueryECG(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	r.Handle("/health-data/stats", RequireAPIKey(apiKey, func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Stats(w, req)
	}))
}

// RegisterHealthRoutes 存活探针（无鉴权）
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Liveness(w, req)
	})
}
