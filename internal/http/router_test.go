package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRouter_AccessLogOncePerRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := NewRouter(zap.New(core))
	router.RegisterHealthRoutes(NewHealthHandler(nil, zap.NewNop()))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	entries := logs.FilterMessage("http request").All()
	assert.Len(t, entries, 3)
}

func TestRouter_RoutesRegisteredAfterConstruction(t *testing.T) {
	router := NewRouter(zap.NewNop())
	// 日志链包装的是 mux 本身，构造之后注册的路由照常可达
	router.RegisterHealthRoutes(NewHealthHandler(nil, zap.NewNop()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
