package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/aleckzsalas-29/itsm2/internal/service"
)

// EmpresaHandler handles client company operations
type EmpresaHandler struct {
	empresaService *service.EmpresaService
	logger         *zap.Logger
}

// NewEmpresaHandler creates a new empresa handler
func NewEmpresaHandler(empresaService *service.EmpresaService, logger *zap.Logger) *EmpresaHandler {
	return &EmpresaHandler{
		empresaService: empresaService,
		logger:         logger,
	}
}

// ListEmpresas returns every empresa
// @Summary List empresas
// @Success 200 {array} models.Empresa
// @Router /api/empresas [get]
func (h *EmpresaHandler) ListEmpresas(c *gin.Context) {
	empresas, err := h.empresaService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to list empresas")
		return
	}
	c.JSON(http.StatusOK, empresas)
}

// GetEmpresa returns one empresa
// @Summary Get empresa
// @Param id path string true "Empresa ID"
// @Success 200 {object} models.Empresa
// @Router /api/empresas/{id} [get]
func (h *EmpresaHandler) GetEmpresa(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	empresa, err := h.empresaService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get empresa")
		return
	}
	c.JSON(http.StatusOK, empresa)
}

// CreateEmpresa creates an empresa
// @Summary Create empresa
// @Accept json
// @Param request body models.Empresa true "Empresa"
// @Success 200 {object} map[string]string
// @Router /api/empresas [post]
func (h *EmpresaHandler) CreateEmpresa(c *gin.Context) {
	var req models.Empresa
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.empresaService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create empresa")
		return
	}

	h.logger.Info("Empresa created", zap.String("empresa_id", id.String()))
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// UpdateEmpresa merges the body into an empresa
// @Summary Update empresa
// @Param id path string true "Empresa ID"
// @Router /api/empresas/{id} [put]
func (h *EmpresaHandler) UpdateEmpresa(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	if err := h.empresaService.Update(c.Request.Context(), id, body); err != nil {
		respondError(c, h.logger, err, "Failed to update empresa")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Empresa actualizada"})
}

// DeleteEmpresa removes an empresa
// @Summary Delete empresa
// @Param id path string true "Empresa ID"
// @Router /api/empresas/{id} [delete]
func (h *EmpresaHandler) DeleteEmpresa(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.empresaService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete empresa")
		return
	}

	h.logger.Info("Empresa deleted", zap.String("empresa_id", id.String()))
	c.JSON(http.StatusOK, gin.H{"message": "Empresa eliminada"})
}
