package middleware

import (
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aleckzsalas-29/itsm2/internal/config"
)

// CORSMiddleware configures CORS based on configuration. A "*" origin allows
// every origin without credentials; bearer tokens do not need cookies.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	if !cfg.Security.CORSEnabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
	}
	if len(cfg.Security.CORSOrigins) == 0 || slices.Contains(cfg.Security.CORSOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Security.CORSOrigins
		corsConfig.AllowCredentials = true
	}

	return cors.New(corsConfig)
}
