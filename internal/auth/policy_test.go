package auth

import (
	"net/http"
	"testing"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/stretchr/testify/assert"
)

func TestPolicy(t *testing.T) {
	p := DefaultPolicy("/api")

	t.Run("Public routes", func(t *testing.T) {
		assert.True(t, p.IsPublic(http.MethodPost, "/api/auth/login"))
		assert.True(t, p.IsPublic(http.MethodGet, "/api/configuracion/publica"))
		assert.False(t, p.IsPublic(http.MethodGet, "/api/auth/me"))
	})

	t.Run("Admin only routes", func(t *testing.T) {
		adminOnly := []struct{ method, path string }{
			{http.MethodGet, "/api/usuarios"},
			{http.MethodPost, "/api/usuarios"},
			{http.MethodPut, "/api/usuarios/:id"},
			{http.MethodDelete, "/api/usuarios/:id"},
			{http.MethodDelete, "/api/empresas/:id"},
			{http.MethodPut, "/api/configuracion"},
			{http.MethodPost, "/api/configuracion/logo"},
			{http.MethodPut, "/api/configuracion/campos/:entidad"},
			{http.MethodGet, "/api/tareas/fallidas"},
		}
		for _, r := range adminOnly {
			assert.NoError(t, p.Authorize(r.method, r.path, models.RoleAdmin), r.path)
			assert.ErrorIs(t, p.Authorize(r.method, r.path, models.RoleTecnico), ErrInsufficientRole, r.path)
			assert.ErrorIs(t, p.Authorize(r.method, r.path, models.RoleCliente), ErrInsufficientRole, r.path)
		}
	})

	t.Run("Operational routes open to every role", func(t *testing.T) {
		for _, role := range models.AllRoles {
			assert.NoError(t, p.Authorize(http.MethodPost, "/api/bitacoras", role))
			assert.NoError(t, p.Authorize(http.MethodGet, "/api/equipos/:id", role))
			assert.NoError(t, p.Authorize(http.MethodGet, "/api/reportes/download/:filename", role))
		}
	})

	t.Run("Unknown routes fail closed", func(t *testing.T) {
		assert.ErrorIs(t, p.Authorize(http.MethodPatch, "/api/empresas/:id", models.RoleAdmin), ErrNoRoute)
		assert.ErrorIs(t, p.Authorize(http.MethodGet, "/api/secret", models.RoleAdmin), ErrNoRoute)
	})

	t.Run("Unknown role is denied", func(t *testing.T) {
		assert.ErrorIs(t, p.Authorize(http.MethodGet, "/api/empresas", models.Role("root")), ErrInsufficientRole)
	})

	t.Run("Roles returns a copy", func(t *testing.T) {
		roles := p.Roles(http.MethodGet, "/api/usuarios")
		assert.Equal(t, []models.Role{models.RoleAdmin}, roles)
		roles[0] = models.RoleCliente
		assert.Equal(t, []models.Role{models.RoleAdmin}, p.Roles(http.MethodGet, "/api/usuarios"))
	})
}
