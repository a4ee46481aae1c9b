package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/auth"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/aleckzsalas-29/itsm2/internal/service"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

type fakeAuthenticator map[string]*models.User

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	switch token {
	case "":
		return nil, &service.Error{Kind: service.ErrUnauthorized, Message: "No autorizado"}
	case "huerfano":
		return nil, &service.Error{Kind: service.ErrNotFound, Message: "Usuario no encontrado"}
	case "roto":
		return nil, errors.New("database is locked")
	}
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, &service.Error{Kind: service.ErrUnauthorized, Message: "Token inválido"}
}

func policyRouter() *gin.Engine {
	users := fakeAuthenticator{
		"admin":   {ID: models.NewID(), Email: "admin@itsm.com", Rol: models.RoleAdmin},
		"tecnico": {ID: models.NewID(), Email: "tecnico@itsm.com", Rol: models.RoleTecnico},
		"cliente": {ID: models.NewID(), Email: "cliente@itsm.com", Rol: models.RoleCliente},
	}
	policy := auth.DefaultPolicy("/api")

	router := setupTestRouter()
	api := router.Group("/api")
	api.Use(AuthMiddleware(users, policy, zap.NewNop()), PolicyMiddleware(policy))

	ok := func(c *gin.Context) {
		user, found := CurrentUser(c)
		if !found {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.Email})
	}
	api.POST("/auth/login", ok)
	api.GET("/configuracion/publica", ok)
	api.GET("/empresas", ok)
	api.DELETE("/empresas/:id", ok)
	api.GET("/usuarios", ok)
	api.GET("/sin-politica", ok)
	return router
}

func doRequest(router *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	router := policyRouter()

	t.Run("Valid token allows access", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/empresas", "Bearer cliente")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "cliente@itsm.com")
	})

	t.Run("Missing header", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/empresas", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "No autorizado")
	})

	t.Run("Malformed header", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/empresas", "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token inválido")
	})

	t.Run("Unknown token", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/empresas", "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token inválido")
	})

	t.Run("Deleted subject", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/empresas", "Bearer huerfano")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Usuario no encontrado")
	})

	t.Run("Store failure", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/empresas", "Bearer roto")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "database is locked")
	})

	t.Run("Public routes skip authentication", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/auth/login", "")
		assert.Equal(t, http.StatusOK, w.Code)
		w = doRequest(router, http.MethodGet, "/api/configuracion/publica", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestPolicyMiddleware(t *testing.T) {
	router := policyRouter()

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"Administrador lists usuarios", http.MethodGet, "/api/usuarios", "admin", http.StatusOK},
		{"Tecnico cannot list usuarios", http.MethodGet, "/api/usuarios", "tecnico", http.StatusForbidden},
		{"Cliente cannot list usuarios", http.MethodGet, "/api/usuarios", "cliente", http.StatusForbidden},
		{"Administrador deletes empresas", http.MethodDelete, "/api/empresas/" + models.NewID().String(), "admin", http.StatusOK},
		{"Tecnico cannot delete empresas", http.MethodDelete, "/api/empresas/" + models.NewID().String(), "tecnico", http.StatusForbidden},
		{"Routes outside the policy are denied", http.MethodGet, "/api/sin-politica", "admin", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, tc.method, tc.path, "Bearer "+tc.token)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "Permisos insuficientes")
			}
		})
	}

	t.Run("Without a user in context", func(t *testing.T) {
		r := setupTestRouter()
		r.Use(PolicyMiddleware(auth.DefaultPolicy("")))
		r.GET("/empresas", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := doRequest(r, http.MethodGet, "/empresas", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
