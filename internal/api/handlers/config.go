package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/aleckzsalas-29/itsm2/internal/service"
)

// maxLogoSize bounds logo uploads
const maxLogoSize = 5 << 20

// ConfigHandler handles system configuration
type ConfigHandler struct {
	configService *service.ConfigService
	logger        *zap.Logger
}

// NewConfigHandler creates a new configuration handler
func NewConfigHandler(configService *service.ConfigService, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

// GetConfig returns the configuration, creating the default one on first use
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configService.Get(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to get configuration")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GetPublicConfig returns the branding shown on the login page
func (h *ConfigHandler) GetPublicConfig(c *gin.Context) {
	cfg, err := h.configService.Public(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to get public configuration")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpdateConfig merges the body into the configuration
func (h *ConfigHandler) UpdateConfig(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	if err := h.configService.Update(c.Request.Context(), body); err != nil {
		respondError(c, h.logger, err, "Failed to update configuration")
		return
	}

	h.logger.Info("Configuration updated", zap.String("user_id", caller(c).ID.String()))
	c.JSON(http.StatusOK, gin.H{"message": "Configuración actualizada"})
}

// UploadLogo stores the system logo. It accepts a multipart "file" field or
// the raw image as the request body.
func (h *ConfigHandler) UploadLogo(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxLogoSize)

	var image []byte
	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		image, err = readFormFile(c, "file")
	} else {
		image, err = io.ReadAll(c.Request.Body)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No se pudo leer el logo"})
		return
	}

	logoURL, err := h.configService.UploadLogo(c.Request.Context(), image)
	if err != nil {
		respondError(c, h.logger, err, "Failed to upload logo")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Logo actualizado exitosamente",
		"logo_url": logoURL,
	})
}

// GetCampos returns the field descriptors of an entidad
func (h *ConfigHandler) GetCampos(c *gin.Context) {
	campos, err := h.configService.Campos(c.Request.Context(), c.Param("entidad"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get campos")
		return
	}
	c.JSON(http.StatusOK, campos)
}

// UpdateCampos replaces the field descriptors of an entidad
func (h *ConfigHandler) UpdateCampos(c *gin.Context) {
	var campos []models.FieldDescriptor
	if err := c.ShouldBindJSON(&campos); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entidad := c.Param("entidad")
	if err := h.configService.SetCampos(c.Request.Context(), entidad, campos); err != nil {
		respondError(c, h.logger, err, "Failed to update campos")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Campos actualizados"})
}

func readFormFile(c *gin.Context, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
