package handlers

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/aleckzsalas-29/itsm2/internal/report"
	"github.com/aleckzsalas-29/itsm2/internal/service"
)

// BitacoraHandler handles maintenance log operations
type BitacoraHandler struct {
	bitacoraService *service.BitacoraService
	logger          *zap.Logger
}

// NewBitacoraHandler creates a new bitácora handler
func NewBitacoraHandler(bitacoraService *service.BitacoraService, logger *zap.Logger) *BitacoraHandler {
	return &BitacoraHandler{
		bitacoraService: bitacoraService,
		logger:          logger,
	}
}

// ListBitacoras returns bitácoras newest first, filtered by equipo_id and
// empresa_id
func (h *BitacoraHandler) ListBitacoras(c *gin.Context) {
	equipoID, ok := queryID(c, "equipo_id")
	if !ok {
		return
	}
	empresaID, ok := queryID(c, "empresa_id")
	if !ok {
		return
	}

	bitacoras, err := h.bitacoraService.List(c.Request.Context(), equipoID, empresaID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list bitácoras")
		return
	}
	c.JSON(http.StatusOK, bitacoras)
}

// GetBitacora returns one bitácora
func (h *BitacoraHandler) GetBitacora(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	bitacora, err := h.bitacoraService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get bitácora")
		return
	}
	c.JSON(http.StatusOK, bitacora)
}

// CreateBitacora records a maintenance entry and schedules the notification
// email to the owning empresa
func (h *BitacoraHandler) CreateBitacora(c *gin.Context) {
	var req models.Bitacora
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.bitacoraService.Create(c.Request.Context(), &req, caller(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to create bitácora")
		return
	}

	h.logger.Info("Bitácora created", zap.String("bitacora_id", id.String()), zap.String("equipo_id", req.EquipoID.String()))
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// UpdateBitacora merges the body into a bitácora
func (h *BitacoraHandler) UpdateBitacora(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	if err := h.bitacoraService.Update(c.Request.Context(), id, body); err != nil {
		respondError(c, h.logger, err, "Failed to update bitácora")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bitácora actualizada"})
}

// DeleteBitacora removes a bitácora
func (h *BitacoraHandler) DeleteBitacora(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.bitacoraService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete bitácora")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bitácora eliminada"})
}

// ExportBitacoras streams an empresa's bitácoras for a period as CSV
// @Summary Export bitácoras
// @Param empresa_id query string true "Empresa ID"
// @Param periodo query string false "dia, semana, mes or otro"
// @Param fecha_inicio query string false "Start date for periodo=otro"
// @Produce text/csv
// @Router /api/bitacoras/exportar [get]
func (h *BitacoraHandler) ExportBitacoras(c *gin.Context) {
	if c.Query("empresa_id") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empresa_id es requerido"})
		return
	}
	empresaID, ok := queryID(c, "empresa_id")
	if !ok {
		return
	}
	periodo := c.DefaultQuery("periodo", string(report.PeriodoMes))

	rows, err := h.bitacoraService.Export(c.Request.Context(), service.ExportRequest{
		EmpresaID:   empresaID,
		Periodo:     periodo,
		FechaInicio: c.Query("fecha_inicio"),
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to export bitácoras")
		return
	}

	var buf bytes.Buffer
	if err := report.WriteBitacorasCSV(&buf, rows); err != nil {
		respondError(c, h.logger, err, "Failed to write CSV")
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": report.CSVFilename(empresaID.String(), periodo),
	}))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
