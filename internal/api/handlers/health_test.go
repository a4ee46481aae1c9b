package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/tasks"
)

// MockPinger is a mock implementation of Pinger for testing
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockDeadLetterSource is a mock implementation of DeadLetterSource for testing
type MockDeadLetterSource struct {
	mock.Mock
}

func (m *MockDeadLetterSource) DeadLetters() ([]tasks.DeadLetter, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tasks.DeadLetter), args.Error(1)
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{"Storage reachable", nil, http.StatusOK, "ok"},
		{"Storage down", errors.New("connection refused"), http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pinger := new(MockPinger)
			pinger.On("Ping", mock.Anything).Return(tt.pingErr)

			handler := NewHealthHandler(pinger, zap.NewNop())
			router := setupTestRouter()
			router.GET("/healthz", handler.Health)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
			pinger.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_ListDeadLetters(t *testing.T) {
	t.Run("Lists journal entries", func(t *testing.T) {
		source := new(MockDeadLetterSource)
		source.On("DeadLetters").Return([]tasks.DeadLetter{
			{ID: "1", Kind: tasks.KindReportNotification, Attempts: 3, Error: "notification not delivered"},
		}, nil)

		handler := NewTaskHandler(source, zap.NewNop())
		router := setupTestRouter()
		router.GET("/tareas/fallidas", handler.ListDeadLetters)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tareas/fallidas", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var letters []tasks.DeadLetter
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &letters))
		require.Len(t, letters, 1)
		assert.Equal(t, tasks.KindReportNotification, letters[0].Kind)
		assert.Equal(t, 3, letters[0].Attempts)
		source.AssertExpectations(t)
	})

	t.Run("Journal failure is an internal error", func(t *testing.T) {
		source := new(MockDeadLetterSource)
		source.On("DeadLetters").Return(nil, errors.New("bolt: database not open"))

		handler := NewTaskHandler(source, zap.NewNop())
		router := setupTestRouter()
		router.GET("/tareas/fallidas", handler.ListDeadLetters)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tareas/fallidas", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Error interno del servidor")
	})
}
