// Package handlers implements the HTTP handlers of the ITSM API. Handlers bind
// and validate requests, call the service layer and map its error classes to
// status codes.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/api/middleware"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/aleckzsalas-29/itsm2/internal/service"
)

const internalError = "Error interno del servidor"

// respondError writes the status for err's class. Unclassified errors are
// logged with msg and hidden behind a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrReportFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al generar reporte"})
		return
	default:
		logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalError})
		return
	}

	message := err.Error()
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	c.JSON(status, gin.H{"error": message})
}

// paramID parses a path id, answering 400 when it is malformed
func paramID(c *gin.Context, name string) (models.ID, bool) {
	id, err := models.ParseID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return "", false
	}
	return id, true
}

// queryID parses an optional id filter from the query string
func queryID(c *gin.Context, name string) (models.ID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return "", true
	}
	id, err := models.ParseID(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido: " + name})
		return "", false
	}
	return id, true
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

// readBody returns the raw request body for merge updates
func readBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cuerpo de la solicitud inválido"})
		return nil, false
	}
	return body, true
}

func caller(c *gin.Context) *models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}

func callerRole(c *gin.Context) models.Role {
	if user := caller(c); user != nil {
		return user.Rol
	}
	return ""
}
