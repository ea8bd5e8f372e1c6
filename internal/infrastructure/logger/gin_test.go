package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedRouter(level zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(level)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	return router, recorded
}

func requestLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	logs := recorded.FilterMessage("http request").All()
	require.Len(t, logs, 1)
	return logs[0]
}

func fieldByKey(entry observer.LoggedEntry, key string) (zapcore.Field, bool) {
	for _, f := range entry.Context {
		if f.Key == key {
			return f, true
		}
	}
	return zapcore.Field{}, false
}

func TestGinMiddleware_LogsRequest(t *testing.T) {
	router, recorded := newObservedRouter(zapcore.InfoLevel)
	router.GET("/api/v1/sync/events", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/events?platform=REVERB", nil)
	req.Header.Set("User-Agent", "gearsync-test/1.0")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	entry := requestLog(t, recorded)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	for _, key := range []string{"status", "latency", "client_ip", "user_agent", "body_size", "method", "path"} {
		_, ok := fieldByKey(entry, key)
		assert.True(t, ok, "missing field %q", key)
	}
	query, ok := fieldByKey(entry, "query")
	require.True(t, ok)
	assert.Contains(t, query.String, "platform=REVERB")
}

func TestGinMiddleware_CarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-90271822")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/api/v1/sync/runs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync/runs", nil))

	entry := requestLog(t, recorded)
	field, ok := fieldByKey(entry, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-90271822", field.String)
}

func TestGinMiddleware_StatusDrivesLevel(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected zapcore.Level
	}{
		{"2xx logs info", http.StatusOK, zapcore.InfoLevel},
		{"4xx logs warn", http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{"5xx logs error", http.StatusBadGateway, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, recorded := newObservedRouter(zapcore.InfoLevel)
			router.GET("/probe", func(c *gin.Context) {
				c.JSON(tt.status, gin.H{})
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

			entry := requestLog(t, recorded)
			assert.Equal(t, tt.expected, entry.Level)
		})
	}
}

func TestGinMiddleware_HealthProbesNotLogged(t *testing.T) {
	router, recorded := newObservedRouter(zapcore.InfoLevel)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorded.FilterMessage("http request").All())
}

func TestGinMiddleware_FailingHealthProbeLogged(t *testing.T) {
	router, recorded := newObservedRouter(zapcore.InfoLevel)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	entry := requestLog(t, recorded)
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) {
		panic("nil adapter")
	})

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	logs := recorded.FilterMessage("panic recovered").All()
	require.Len(t, logs, 1)
	_, ok := fieldByKey(logs[0], "stacktrace")
	assert.True(t, ok)
}

func TestGetGinLogger(t *testing.T) {
	router, _ := newObservedRouter(zapcore.InfoLevel)

	var fromHandler *zap.Logger
	router.GET("/probe", func(c *gin.Context) {
		fromHandler = GetGinLogger(c)
		c.JSON(http.StatusOK, gin.H{})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.NotNil(t, fromHandler)
}

func TestGetGinLogger_WithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var fromHandler *zap.Logger
	router := gin.New()
	router.GET("/probe", func(c *gin.Context) {
		fromHandler = GetGinLogger(c)
		c.JSON(http.StatusOK, gin.H{})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	require.NotNil(t, fromHandler)
	assert.NotPanics(t, func() {
		fromHandler.Info("noop")
	})
}
