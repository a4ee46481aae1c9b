package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/aleckzsalas-29/itsm2/internal/service"
)

// EquipoHandler handles equipment operations
type EquipoHandler struct {
	equipoService *service.EquipoService
	logger        *zap.Logger
}

// NewEquipoHandler creates a new equipo handler
func NewEquipoHandler(equipoService *service.EquipoService, logger *zap.Logger) *EquipoHandler {
	return &EquipoHandler{
		equipoService: equipoService,
		logger:        logger,
	}
}

// ListEquipos returns equipos, optionally filtered by empresa_id. Credentials
// are never included.
// @Summary List equipos
// @Param empresa_id query string false "Empresa ID"
// @Router /api/equipos [get]
func (h *EquipoHandler) ListEquipos(c *gin.Context) {
	empresaID, ok := queryID(c, "empresa_id")
	if !ok {
		return
	}

	equipos, err := h.equipoService.List(c.Request.Context(), empresaID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list equipos")
		return
	}
	c.JSON(http.StatusOK, equipos)
}

// GetEquipo returns one equipo. Passwords are decrypted only with
// show_passwords=true and a role allowed to see them.
// @Summary Get equipo
// @Param id path string true "Equipo ID"
// @Param show_passwords query bool false "Disclose credentials"
// @Router /api/equipos/{id} [get]
func (h *EquipoHandler) GetEquipo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	disclose := queryBool(c, "show_passwords")
	equipo, err := h.equipoService.Get(c.Request.Context(), id, disclose, callerRole(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get equipo")
		return
	}

	if disclose && callerRole(c).CanDisclose() {
		h.logger.Info("Equipo credentials disclosed",
			zap.String("equipo_id", id.String()),
			zap.String("user_id", caller(c).ID.String()),
		)
	}
	c.JSON(http.StatusOK, equipo)
}

// CreateEquipo creates an equipo
// @Summary Create equipo
// @Router /api/equipos [post]
func (h *EquipoHandler) CreateEquipo(c *gin.Context) {
	var req models.Equipo
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.equipoService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create equipo")
		return
	}

	h.logger.Info("Equipo created", zap.String("equipo_id", id.String()), zap.String("empresa_id", req.EmpresaID.String()))
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// UpdateEquipo merges the body into an equipo
// @Summary Update equipo
// @Router /api/equipos/{id} [put]
func (h *EquipoHandler) UpdateEquipo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	if err := h.equipoService.Update(c.Request.Context(), id, body); err != nil {
		respondError(c, h.logger, err, "Failed to update equipo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Equipo actualizado"})
}

// DeleteEquipo removes an equipo
// @Summary Delete equipo
// @Router /api/equipos/{id} [delete]
func (h *EquipoHandler) DeleteEquipo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.equipoService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete equipo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Equipo eliminado"})
}
