package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/aleckzsalas-29/itsm2/internal/service"
)

// ServicioHandler handles contracted service operations
type ServicioHandler struct {
	servicioService *service.ServicioService
	logger          *zap.Logger
}

// NewServicioHandler creates a new servicio handler
func NewServicioHandler(servicioService *service.ServicioService, logger *zap.Logger) *ServicioHandler {
	return &ServicioHandler{
		servicioService: servicioService,
		logger:          logger,
	}
}

// CreateServicioRequest is a servicio whose activo flag defaults to true
// when omitted
type CreateServicioRequest struct {
	models.Servicio
	Activo *bool `json:"activo"`
}

// ListServicios returns servicios without credentials
func (h *ServicioHandler) ListServicios(c *gin.Context) {
	empresaID, ok := queryID(c, "empresa_id")
	if !ok {
		return
	}

	servicios, err := h.servicioService.List(c.Request.Context(), empresaID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list servicios")
		return
	}
	c.JSON(http.StatusOK, servicios)
}

// GetServicio returns one servicio. Credentials are decrypted only with
// show_credentials=true and a role allowed to see them.
func (h *ServicioHandler) GetServicio(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	disclose := queryBool(c, "show_credentials")
	servicio, err := h.servicioService.Get(c.Request.Context(), id, disclose, callerRole(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get servicio")
		return
	}

	if disclose && callerRole(c).CanDisclose() {
		h.logger.Info("Servicio credentials disclosed",
			zap.String("servicio_id", id.String()),
			zap.String("user_id", caller(c).ID.String()),
		)
	}
	c.JSON(http.StatusOK, servicio)
}

// CreateServicio creates a servicio
func (h *ServicioHandler) CreateServicio(c *gin.Context) {
	var req CreateServicioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.servicioService.Create(c.Request.Context(), &req.Servicio, req.Activo)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create servicio")
		return
	}

	h.logger.Info("Servicio created", zap.String("servicio_id", id.String()))
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// UpdateServicio merges the body into a servicio
func (h *ServicioHandler) UpdateServicio(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	if err := h.servicioService.Update(c.Request.Context(), id, body); err != nil {
		respondError(c, h.logger, err, "Failed to update servicio")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Servicio actualizado"})
}

// DeleteServicio removes a servicio
func (h *ServicioHandler) DeleteServicio(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.servicioService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete servicio")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Servicio eliminado"})
}
