package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/service"
)

// ReportHandler handles PDF report generation and download
type ReportHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// EmpresaReport renders the company report
// @Summary Generate empresa report
// @Param id path string true "Empresa ID"
// @Param plantilla query string false "clasico, moderno or compacto"
// @Success 200 {object} map[string]string
// @Router /api/reportes/empresa/{id} [get]
func (h *ReportHandler) EmpresaReport(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	filename, err := h.reportService.Empresa(c.Request.Context(), id, c.Query("plantilla"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to generate empresa report")
		return
	}

	h.logger.Info("Report generated", zap.String("filename", filename))
	c.JSON(http.StatusOK, gin.H{"filename": filename, "message": "Reporte generado exitosamente"})
}

// EquipoReport renders the equipment report
// @Summary Generate equipo report
// @Param id path string true "Equipo ID"
// @Router /api/reportes/equipo/{id} [get]
func (h *ReportHandler) EquipoReport(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	filename, err := h.reportService.Equipo(c.Request.Context(), id, c.Query("plantilla"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to generate equipo report")
		return
	}

	h.logger.Info("Report generated", zap.String("filename", filename))
	c.JSON(http.StatusOK, gin.H{"filename": filename, "message": "Reporte generado exitosamente"})
}

// DownloadReport streams a generated PDF
// @Summary Download report
// @Param filename path string true "Report filename"
// @Produce application/pdf
// @Router /api/reportes/download/{filename} [get]
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	filename := c.Param("filename")
	path, err := h.reportService.Path(filename)
	if err != nil {
		respondError(c, h.logger, err, "Failed to resolve report")
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(path, filename)
}
