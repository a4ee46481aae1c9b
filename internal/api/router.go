// Package api provides HTTP routing and server configuration for the ITSM API.
// It wires together handlers, middleware, and services to create the application's API endpoints.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/api/handlers"
	"github.com/aleckzsalas-29/itsm2/internal/api/middleware"
	"github.com/aleckzsalas-29/itsm2/internal/auth"
	"github.com/aleckzsalas-29/itsm2/internal/config"
	"github.com/aleckzsalas-29/itsm2/internal/service"
)

// Prefix is the mount point of the JSON API
const Prefix = "/api"

// Options carries the dependencies of the router
type Options struct {
	Config   *config.Config
	Services *service.Services
	Store    handlers.Pinger
	Tasks    handlers.DeadLetterSource
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// NewRouter creates and configures the HTTP router
func NewRouter(opts Options) (*gin.Engine, error) {
	cfg, svc, logger := opts.Config, opts.Services, opts.Logger

	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Telemetry.Metrics && opts.Registry != nil {
		router.Use(middleware.NewMetrics(opts.Registry).Middleware())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	healthHandler := handlers.NewHealthHandler(opts.Store, logger)
	router.GET("/healthz", healthHandler.Health)

	policy := auth.DefaultPolicy(Prefix)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Users, logger)
	userHandler := handlers.NewUserHandler(svc.Users, logger)
	empresaHandler := handlers.NewEmpresaHandler(svc.Empresas, logger)
	equipoHandler := handlers.NewEquipoHandler(svc.Equipos, logger)
	bitacoraHandler := handlers.NewBitacoraHandler(svc.Bitacoras, logger)
	servicioHandler := handlers.NewServicioHandler(svc.Servicios, logger)
	configHandler := handlers.NewConfigHandler(svc.Configuracion, logger)
	statsHandler := handlers.NewStatsHandler(svc.Estadisticas, logger)
	reportHandler := handlers.NewReportHandler(svc.Reportes, logger)
	taskHandler := handlers.NewTaskHandler(opts.Tasks, logger)

	api := router.Group(Prefix)
	if cfg.Security.RateLimitEnabled {
		window, err := cfg.RateLimitWindowDuration()
		if err != nil {
			return nil, err
		}
		limiter := middleware.NewRateLimiter(cfg.Security.RateLimitRequests, window, cfg.Security.RateLimitBurst)
		api.Use(limiter.Middleware())
	}
	api.Use(middleware.AuthMiddleware(svc.Users, policy, logger))
	api.Use(middleware.PolicyMiddleware(policy))
	{
		// Auth
		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/me", authHandler.GetCurrentUser)

		// Usuarios
		api.GET("/usuarios", userHandler.ListUsers)
		api.POST("/usuarios", userHandler.CreateUser)
		api.PUT("/usuarios/:id", userHandler.UpdateUser)
		api.DELETE("/usuarios/:id", userHandler.DeleteUser)

		// Empresas
		api.GET("/empresas", empresaHandler.ListEmpresas)
		api.POST("/empresas", empresaHandler.CreateEmpresa)
		api.GET("/empresas/:id", empresaHandler.GetEmpresa)
		api.PUT("/empresas/:id", empresaHandler.UpdateEmpresa)
		api.DELETE("/empresas/:id", empresaHandler.DeleteEmpresa)

		// Equipos
		api.GET("/equipos", equipoHandler.ListEquipos)
		api.POST("/equipos", equipoHandler.CreateEquipo)
		api.GET("/equipos/:id", equipoHandler.GetEquipo)
		api.PUT("/equipos/:id", equipoHandler.UpdateEquipo)
		api.DELETE("/equipos/:id", equipoHandler.DeleteEquipo)

		// Bitácoras
		api.GET("/bitacoras", bitacoraHandler.ListBitacoras)
		api.POST("/bitacoras", bitacoraHandler.CreateBitacora)
		api.GET("/bitacoras/exportar", bitacoraHandler.ExportBitacoras)
		api.GET("/bitacoras/:id", bitacoraHandler.GetBitacora)
		api.PUT("/bitacoras/:id", bitacoraHandler.UpdateBitacora)
		api.DELETE("/bitacoras/:id", bitacoraHandler.DeleteBitacora)

		// Servicios
		api.GET("/servicios", servicioHandler.ListServicios)
		api.POST("/servicios", servicioHandler.CreateServicio)
		api.GET("/servicios/:id", servicioHandler.GetServicio)
		api.PUT("/servicios/:id", servicioHandler.UpdateServicio)
		api.DELETE("/servicios/:id", servicioHandler.DeleteServicio)

		// Configuración
		api.GET("/configuracion", configHandler.GetConfig)
		api.PUT("/configuracion", configHandler.UpdateConfig)
		api.GET("/configuracion/publica", configHandler.GetPublicConfig)
		api.POST("/configuracion/logo", configHandler.UploadLogo)
		api.GET("/configuracion/campos/:entidad", configHandler.GetCampos)
		api.PUT("/configuracion/campos/:entidad", configHandler.UpdateCampos)

		// Estadísticas y reportes
		api.GET("/estadisticas", statsHandler.GetStats)
		api.GET("/reportes/empresa/:id", reportHandler.EmpresaReport)
		api.GET("/reportes/equipo/:id", reportHandler.EquipoReport)
		api.GET("/reportes/download/:filename", reportHandler.DownloadReport)

		// Tareas en segundo plano
		api.GET("/tareas/fallidas", taskHandler.ListDeadLetters)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ruta no encontrada"})
	})

	return router, nil
}
