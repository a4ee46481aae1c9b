package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/auth"
	"github.com/aleckzsalas-29/itsm2/internal/database"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

// UserService handles user operations
type UserService struct {
	deps Deps
}

// NewUserService creates a new user service
func NewUserService(d Deps) *UserService {
	return &UserService{deps: d}
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Email    string
	Nombre   string
	Password string
	Rol      models.Role
}

// LoginResult is a signed token together with the user it was issued for
type LoginResult struct {
	Token   string       `json:"token"`
	Usuario *models.User `json:"usuario"`
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email inválido: %s", email)
	}
	return email, nil
}

// CreateUser creates a new user
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Nombre) == "" {
		return nil, invalid("nombre es requerido")
	}
	if !req.Rol.Valid() {
		return nil, invalid("rol inválido: %s", req.Rol)
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, invalid("weak password: %v", err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           models.NewID(),
		Email:        email,
		Nombre:       strings.TrimSpace(req.Nombre),
		PasswordHash: passwordHash,
		Rol:          req.Rol,
		Activo:       true,
		CreadoEn:     models.Now(),
	}

	if err := s.deps.Store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, newError(ErrConflict, "El email ya está registrado")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return sanitize(user), nil
}

// Login verifies credentials and issues a token
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.deps.Store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "Credenciales inválidas")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, newError(ErrUnauthorized, "Credenciales inválidas")
	}

	if !user.Activo {
		return nil, newError(ErrForbidden, "Usuario inactivo")
	}

	jwtCfg := s.deps.Config.JWT
	token, err := auth.GenerateToken(user.ID.String(), user.Email, string(user.Rol), jwtCfg.Secret, jwtCfg.Issuer, jwtCfg.Expiration)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResult{Token: token, Usuario: sanitize(user)}, nil
}

// Authenticate resolves a bearer token to the stored user
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, newError(ErrUnauthorized, "No autorizado")
	}

	claims, err := auth.ValidateToken(token, s.deps.Config.JWT.Secret)
	if err != nil {
		return nil, newError(ErrUnauthorized, "Token inválido")
	}

	id, err := models.ParseID(claims.UserID())
	if err != nil {
		return nil, newError(ErrUnauthorized, "Token inválido")
	}

	user, err := s.deps.Store.GetUser(ctx, id)
	if err != nil {
		return nil, lookup(err, "Usuario no encontrado")
	}
	return sanitize(user), nil
}

// ListUsers returns every user without password hashes
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.deps.Store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		sanitize(u)
	}
	return users, nil
}

// UpdateUser merges body onto the stored user. A "password" key is hashed.
func (s *UserService) UpdateUser(ctx context.Context, id models.ID, body []byte) error {
	p, err := decodePatch(body)
	if err != nil {
		return err
	}

	user, err := s.deps.Store.GetUser(ctx, id)
	if err != nil {
		return lookup(err, "Usuario no encontrado")
	}

	password, hasPassword, err := p.takeString("password")
	if err != nil {
		return err
	}
	if err := p.applyTo(user); err != nil {
		return err
	}

	email, err := normalizeEmail(user.Email)
	if err != nil {
		return err
	}
	user.Email = email
	if !user.Rol.Valid() {
		return invalid("rol inválido: %s", user.Rol)
	}

	if hasPassword {
		if err := auth.ValidatePasswordStrength(password); err != nil {
			return invalid("weak password: %v", err)
		}
		if user.PasswordHash, err = auth.HashPassword(password); err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
	}

	if err := s.deps.Store.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return newError(ErrNotFound, "Usuario no encontrado")
		case errors.Is(err, database.ErrDuplicate):
			return newError(ErrConflict, "El email ya está registrado")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser removes a user
func (s *UserService) DeleteUser(ctx context.Context, id models.ID) error {
	if err := s.deps.Store.DeleteUser(ctx, id); err != nil {
		return lookup(err, "Usuario no encontrado")
	}
	return nil
}

// EnsureAdmin creates the bootstrap administrator when no administrador
// exists yet. It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context) (bool, error) {
	n, err := s.deps.Store.CountUsersByRole(ctx, models.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to count administrators: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	b := s.deps.Config.Bootstrap
	user, err := s.CreateUser(ctx, &CreateUserRequest{
		Email:    b.AdminEmail,
		Nombre:   b.AdminName,
		Password: b.AdminPassword,
		Rol:      models.RoleAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create bootstrap administrator: %w", err)
	}

	s.deps.Logger.Info("Bootstrap administrator created", zap.String("email", user.Email))
	if s.deps.Config.UsesDefaultAdminPassword() {
		s.deps.Logger.Warn("Bootstrap administrator uses the default password, change it after first login",
			zap.String("email", user.Email))
	}
	return true, nil
}

func sanitize(u *models.User) *models.User {
	u.PasswordHash = ""
	return u
}
