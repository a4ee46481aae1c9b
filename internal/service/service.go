// Package service implements the ITSM operations on top of the store: user
// authentication, the CRUD surface for empresas, equipos, bitácoras and
// servicios, deployment configuration, dashboard statistics and reports.
package service

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/config"
	"github.com/aleckzsalas-29/itsm2/internal/crypto"
	"github.com/aleckzsalas-29/itsm2/internal/database"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/aleckzsalas-29/itsm2/internal/report"
	"github.com/aleckzsalas-29/itsm2/internal/tasks"
)

// Deps carries the process-wide collaborators shared by every service.
// They are built once at startup and never replaced.
type Deps struct {
	Store   database.Store
	Vault   *crypto.Vault
	Tasks   tasks.Scheduler
	Reports *report.Compiler
	Config  *config.Config
	Logger  *zap.Logger
}

// Services groups the services the HTTP layer needs
type Services struct {
	Users         *UserService
	Empresas      *EmpresaService
	Equipos       *EquipoService
	Bitacoras     *BitacoraService
	Servicios     *ServicioService
	Configuracion *ConfigService
	Estadisticas  *StatsService
	Reportes      *ReportService
}

// New builds every service from d
func New(d Deps) *Services {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	cfgSvc := NewConfigService(d)
	return &Services{
		Users:         NewUserService(d),
		Empresas:      NewEmpresaService(d, cfgSvc),
		Equipos:       NewEquipoService(d, cfgSvc),
		Bitacoras:     NewBitacoraService(d, cfgSvc),
		Servicios:     NewServicioService(d, cfgSvc),
		Configuracion: cfgSvc,
		Estadisticas:  NewStatsService(d),
		Reportes:      NewReportService(d),
	}
}

// validate runs the binding rules declared on the model
func validate(v any) error {
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return invalid("%s", err.Error())
	}
	return nil
}

func validEstado(estado string, allowed []string) bool {
	for _, a := range allowed {
		if estado == a {
			return true
		}
	}
	return false
}

// conformFields checks custom field values against configured descriptors
func conformFields(f models.Fields, schema []models.FieldDescriptor, allowUnknown bool) (models.Fields, error) {
	out, err := f.Conform(schema, allowUnknown)
	if err != nil {
		if errors.Is(err, models.ErrInvalidField) {
			return models.Fields{}, invalid("%s", err.Error())
		}
		return models.Fields{}, err
	}
	return out, nil
}

// encryptOptional seals plaintext, returning "" for absent or empty input
func (d Deps) encryptOptional(plaintext *string) (string, error) {
	if plaintext == nil || *plaintext == "" {
		return "", nil
	}
	sealed, err := d.Vault.Encrypt(*plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt credential: %w", err)
	}
	return sealed, nil
}

func (d Deps) enqueue(kind tasks.Kind, payload map[string]string) {
	if d.Tasks == nil {
		d.Logger.Warn("No task scheduler configured, dropping task", zap.String("kind", string(kind)))
		return
	}
	d.Tasks.Enqueue(kind, payload)
}
