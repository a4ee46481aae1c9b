package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/aleckzsalas-29/itsm2/internal/service"
)

// UserHandler handles user administration
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// CreateUserRequest represents a user creation request
type CreateUserRequest struct {
	Email    string      `json:"email" binding:"required"`
	Nombre   string      `json:"nombre" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Rol      models.Role `json:"rol" binding:"required"`
}

// ListUsers returns every user
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser creates a user
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), &service.CreateUserRequest{
		Email:    req.Email,
		Nombre:   req.Nombre,
		Password: req.Password,
		Rol:      req.Rol,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to create user")
		return
	}

	h.logger.Info("User created", zap.String("user_id", user.ID.String()), zap.String("rol", string(user.Rol)))
	c.JSON(http.StatusOK, gin.H{"id": user.ID})
}

// UpdateUser merges the body into a user
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	if err := h.userService.UpdateUser(c.Request.Context(), id, body); err != nil {
		respondError(c, h.logger, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Usuario actualizado"})
}

// DeleteUser removes a user
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete user")
		return
	}

	h.logger.Info("User deleted", zap.String("user_id", id.String()))
	c.JSON(http.StatusOK, gin.H{"message": "Usuario eliminado"})
}
