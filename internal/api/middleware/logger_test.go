package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

func TestLoggerMiddleware(t *testing.T) {
	newRouter := func() (*gin.Engine, *observer.ObservedLogs) {
		core, recorded := observer.New(zapcore.InfoLevel)
		router := setupTestRouter()
		router.Use(LoggerMiddleware(zap.New(core)))
		return router, recorded
	}

	t.Run("Logs request fields", func(t *testing.T) {
		router, recorded := newRouter()
		router.GET("/api/empresas", func(c *gin.Context) {
			time.Sleep(5 * time.Millisecond)
			c.JSON(http.StatusOK, gin.H{})
		})

		req, _ := http.NewRequest(http.MethodGet, "/api/empresas?activo=true", nil)
		req.Header.Set("User-Agent", "itsm-test")
		req.RemoteAddr = "192.168.1.100:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "HTTP request", logs[0].Message)
		assert.Equal(t, zapcore.InfoLevel, logs[0].Level)

		fields := logs[0].ContextMap()
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/api/empresas", fields["path"])
		assert.Equal(t, "activo=true", fields["query"])
		assert.Equal(t, int64(200), fields["status"])
		assert.Equal(t, "192.168.1.100", fields["ip"])
		assert.Equal(t, "itsm-test", fields["user_agent"])
		latency, ok := fields["latency"].(time.Duration)
		require.True(t, ok)
		assert.GreaterOrEqual(t, latency, 5*time.Millisecond)
		assert.NotContains(t, fields, "user_id")
	})

	t.Run("Level follows status", func(t *testing.T) {
		router, recorded := newRouter()
		router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
		router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

		for _, path := range []string{"/fail", "/bad", "/missing"} {
			req, _ := http.NewRequest(http.MethodGet, path, nil)
			router.ServeHTTP(httptest.NewRecorder(), req)
		}

		logs := recorded.All()
		require.Len(t, logs, 3)
		assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
		assert.Equal(t, zapcore.WarnLevel, logs[1].Level)
		assert.Equal(t, int64(404), logs[2].ContextMap()["status"])
		assert.Equal(t, "/missing", logs[2].ContextMap()["path"])
	})

	t.Run("Includes the authenticated user", func(t *testing.T) {
		router, recorded := newRouter()
		id := models.NewID()
		router.POST("/api/bitacoras", func(c *gin.Context) {
			c.Set(userKey, &models.User{ID: id, Rol: models.RoleTecnico})
			c.Status(http.StatusCreated)
		})

		req, _ := http.NewRequest(http.MethodPost, "/api/bitacoras", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, id.String(), logs[0].ContextMap()["user_id"])
		assert.Equal(t, int64(201), logs[0].ContextMap()["status"])
	})
}
