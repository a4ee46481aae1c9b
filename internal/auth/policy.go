package auth

import (
	"errors"
	"net/http"
	"slices"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

var (
	// ErrNoRoute is returned for routes the policy does not list
	ErrNoRoute = errors.New("route not covered by policy")
	// ErrInsufficientRole is returned when the role is not allowed on a route
	ErrInsufficientRole = errors.New("insufficient permissions")
)

type routeKey struct {
	method string
	path   string
}

type rule struct {
	public bool
	roles  []models.Role
}

// Policy maps (method, route pattern) to the roles allowed on it. Patterns
// are gin full paths such as "/api/empresas/:id". Anything not listed is
// denied.
type Policy struct {
	rules map[routeKey]rule
}

// NewPolicy returns an empty policy that denies every route
func NewPolicy() *Policy {
	return &Policy{rules: make(map[routeKey]rule)}
}

// Public marks a route as reachable without a token
func (p *Policy) Public(method, path string) *Policy {
	p.rules[routeKey{method, path}] = rule{public: true}
	return p
}

// Allow lets roles call a route
func (p *Policy) Allow(method, path string, roles ...models.Role) *Policy {
	p.rules[routeKey{method, path}] = rule{roles: slices.Clone(roles)}
	return p
}

// IsPublic reports whether a route skips authentication
func (p *Policy) IsPublic(method, path string) bool {
	r, ok := p.rules[routeKey{method, path}]
	return ok && r.public
}

// Authorize checks role against the rule for the route
func (p *Policy) Authorize(method, path string, role models.Role) error {
	r, ok := p.rules[routeKey{method, path}]
	if !ok {
		return ErrNoRoute
	}
	if r.public || slices.Contains(r.roles, role) {
		return nil
	}
	return ErrInsufficientRole
}

// Roles returns the roles allowed on a route, nil for public or unknown routes
func (p *Policy) Roles(method, path string) []models.Role {
	return slices.Clone(p.rules[routeKey{method, path}].roles)
}

// DefaultPolicy is the access table of the ITSM API mounted under prefix.
// Every role may read and write operational records; user management,
// empresa deletion and system configuration are reserved to administrators.
func DefaultPolicy(prefix string) *Policy {
	all := models.AllRoles
	admin := models.RoleAdmin
	p := NewPolicy()

	p.Public(http.MethodPost, prefix+"/auth/login")
	p.Public(http.MethodGet, prefix+"/configuracion/publica")
	p.Allow(http.MethodGet, prefix+"/auth/me", all...)

	p.Allow(http.MethodGet, prefix+"/usuarios", admin)
	p.Allow(http.MethodPost, prefix+"/usuarios", admin)
	p.Allow(http.MethodPut, prefix+"/usuarios/:id", admin)
	p.Allow(http.MethodDelete, prefix+"/usuarios/:id", admin)

	p.Allow(http.MethodGet, prefix+"/empresas", all...)
	p.Allow(http.MethodPost, prefix+"/empresas", all...)
	p.Allow(http.MethodGet, prefix+"/empresas/:id", all...)
	p.Allow(http.MethodPut, prefix+"/empresas/:id", all...)
	p.Allow(http.MethodDelete, prefix+"/empresas/:id", admin)

	for _, resource := range []string{"/equipos", "/bitacoras", "/servicios"} {
		p.Allow(http.MethodGet, prefix+resource, all...)
		p.Allow(http.MethodPost, prefix+resource, all...)
		p.Allow(http.MethodGet, prefix+resource+"/:id", all...)
		p.Allow(http.MethodPut, prefix+resource+"/:id", all...)
		p.Allow(http.MethodDelete, prefix+resource+"/:id", all...)
	}
	p.Allow(http.MethodGet, prefix+"/bitacoras/exportar", all...)

	p.Allow(http.MethodGet, prefix+"/configuracion", all...)
	p.Allow(http.MethodPut, prefix+"/configuracion", admin)
	p.Allow(http.MethodPost, prefix+"/configuracion/logo", admin)
	p.Allow(http.MethodGet, prefix+"/configuracion/campos/:entidad", all...)
	p.Allow(http.MethodPut, prefix+"/configuracion/campos/:entidad", admin)

	p.Allow(http.MethodGet, prefix+"/estadisticas", all...)

	p.Allow(http.MethodGet, prefix+"/reportes/empresa/:id", all...)
	p.Allow(http.MethodGet, prefix+"/reportes/equipo/:id", all...)
	p.Allow(http.MethodGet, prefix+"/reportes/download/:filename", all...)

	p.Allow(http.MethodGet, prefix+"/tareas/fallidas", admin)

	return p
}
