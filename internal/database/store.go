package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aleckzsalas-29/itsm2/internal/config"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("duplicate record")
)

// EquipoFilter narrows ListEquipos
type EquipoFilter struct {
	EmpresaID models.ID
}

// BitacoraFilter narrows ListBitacoras. Zero times leave the range open.
type BitacoraFilter struct {
	EquipoID  models.ID
	EmpresaID models.ID
	Desde     time.Time
	Hasta     time.Time
}

// ServicioFilter narrows ListServicios
type ServicioFilter struct {
	EmpresaID   models.ID
	SoloActivos bool
}

// ServicioTotals summarises active servicios
type ServicioTotals struct {
	Count        int
	CostoMensual float64
}

// Store is the persistence contract shared by the SQL and MongoDB backends.
// Lookups of missing records return ErrNotFound; bitácoras are listed newest
// first.
type Store interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id models.ID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id models.ID) error
	CountUsersByRole(ctx context.Context, role models.Role) (int, error)

	CreateEmpresa(ctx context.Context, e *models.Empresa) error
	GetEmpresa(ctx context.Context, id models.ID) (*models.Empresa, error)
	ListEmpresas(ctx context.Context) ([]*models.Empresa, error)
	UpdateEmpresa(ctx context.Context, e *models.Empresa) error
	DeleteEmpresa(ctx context.Context, id models.ID) error

	CreateEquipo(ctx context.Context, e *models.Equipo) error
	GetEquipo(ctx context.Context, id models.ID) (*models.Equipo, error)
	ListEquipos(ctx context.Context, f EquipoFilter) ([]*models.Equipo, error)
	UpdateEquipo(ctx context.Context, e *models.Equipo) error
	DeleteEquipo(ctx context.Context, id models.ID) error

	CreateBitacora(ctx context.Context, b *models.Bitacora) error
	GetBitacora(ctx context.Context, id models.ID) (*models.Bitacora, error)
	ListBitacoras(ctx context.Context, f BitacoraFilter) ([]*models.Bitacora, error)
	UpdateBitacora(ctx context.Context, b *models.Bitacora) error
	DeleteBitacora(ctx context.Context, id models.ID) error

	CreateServicio(ctx context.Context, s *models.Servicio) error
	GetServicio(ctx context.Context, id models.ID) (*models.Servicio, error)
	ListServicios(ctx context.Context, f ServicioFilter) ([]*models.Servicio, error)
	UpdateServicio(ctx context.Context, s *models.Servicio) error
	DeleteServicio(ctx context.Context, id models.ID) error

	CountEmpresas(ctx context.Context) (int, error)
	CountEquiposByEstado(ctx context.Context) (map[string]int, error)
	CountBitacorasByEstado(ctx context.Context) (map[string]int, error)
	TotalServiciosActivos(ctx context.Context) (ServicioTotals, error)

	GetConfiguracion(ctx context.Context) (*models.Configuracion, error)
	SaveConfiguracion(ctx context.Context, c *models.Configuracion) error

	GetSystemConfig(ctx context.Context, key string) (string, error)
	SetSystemConfig(ctx context.Context, key, value string) error
}

// Open connects to the backend selected by cfg.Database.Type
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Database.Type {
	case "sqlite", "postgres":
		return New(cfg)
	case "mongo":
		return NewMongo(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}
