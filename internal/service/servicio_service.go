package service

import (
	"context"
	"fmt"

	"github.com/aleckzsalas-29/itsm2/internal/database"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

// ServicioService handles contracted services and their credentials
type ServicioService struct {
	deps Deps
	cfg  *ConfigService
}

// NewServicioService creates a new servicio service
func NewServicioService(d Deps, cfg *ConfigService) *ServicioService {
	return &ServicioService{deps: d, cfg: cfg}
}

// Create stores a new servicio. Activo defaults to true when the
// body omits it.
func (s *ServicioService) Create(ctx context.Context, sv *models.Servicio, activo *bool) (models.ID, error) {
	sv.Activo = activo == nil || *activo
	if err := s.prepare(ctx, sv); err != nil {
		return "", err
	}

	sealed, err := s.deps.encryptOptional(sv.Credenciales)
	if err != nil {
		return "", err
	}
	sv.CredencialesEncrypted = sealed
	sv.Credenciales = nil

	now := models.Now()
	sv.ID = models.NewID()
	sv.CreadoEn = now
	sv.ActualizadoEn = now

	if err := s.deps.Store.CreateServicio(ctx, sv); err != nil {
		return "", fmt.Errorf("failed to create servicio: %w", err)
	}
	return sv.ID, nil
}

// Get returns one servicio. Decrypted credentials are attached only when
// disclose is set and role may see credentials.
func (s *ServicioService) Get(ctx context.Context, id models.ID, disclose bool, role models.Role) (*models.Servicio, error) {
	sv, err := s.deps.Store.GetServicio(ctx, id)
	if err != nil {
		return nil, lookup(err, "Servicio no encontrado")
	}

	sv.Credenciales = nil
	if disclose && role.CanDisclose() && sv.HasCredenciales() {
		v := s.deps.Vault.Reveal(sv.CredencialesEncrypted)
		sv.Credenciales = &v
	}

	schema, err := s.cfg.schema(ctx, models.EntidadServicios)
	if err != nil {
		return nil, err
	}
	sv.CamposPersonalizados = sv.CamposPersonalizados.Interpret(schema)
	return sv, nil
}

// List returns servicios, optionally of one empresa, without credentials
func (s *ServicioService) List(ctx context.Context, empresaID models.ID) ([]*models.Servicio, error) {
	servicios, err := s.deps.Store.ListServicios(ctx, database.ServicioFilter{EmpresaID: empresaID})
	if err != nil {
		return nil, fmt.Errorf("failed to list servicios: %w", err)
	}
	for _, sv := range servicios {
		sv.Credenciales = nil
	}
	return servicios, nil
}

// Update merges body onto the stored servicio. A non-empty credenciales
// value replaces the stored ciphertext.
func (s *ServicioService) Update(ctx context.Context, id models.ID, body []byte) error {
	p, err := decodePatch(body)
	if err != nil {
		return err
	}
	sv, err := s.deps.Store.GetServicio(ctx, id)
	if err != nil {
		return lookup(err, "Servicio no encontrado")
	}

	credenciales, setCredenciales, err := p.takeString("credenciales")
	if err != nil {
		return err
	}
	if err := p.applyTo(sv); err != nil {
		return err
	}
	if err := s.prepare(ctx, sv); err != nil {
		return err
	}
	if setCredenciales {
		if sv.CredencialesEncrypted, err = s.deps.encryptOptional(&credenciales); err != nil {
			return err
		}
	}

	sv.ActualizadoEn = models.Now()
	if err := s.deps.Store.UpdateServicio(ctx, sv); err != nil {
		return lookup(err, "Servicio no encontrado")
	}
	return nil
}

// Delete removes a servicio
func (s *ServicioService) Delete(ctx context.Context, id models.ID) error {
	if err := s.deps.Store.DeleteServicio(ctx, id); err != nil {
		return lookup(err, "Servicio no encontrado")
	}
	return nil
}

func (s *ServicioService) prepare(ctx context.Context, sv *models.Servicio) error {
	if err := validate(sv); err != nil {
		return err
	}
	if sv.FechaInicio.IsZero() || sv.FechaRenovacion.IsZero() {
		return invalid("fecha_inicio y fecha_renovacion son requeridas")
	}
	if _, err := s.deps.Store.GetEmpresa(ctx, sv.EmpresaID); err != nil {
		return lookup(err, "Empresa no encontrada")
	}

	schema, err := s.cfg.schema(ctx, models.EntidadServicios)
	if err != nil {
		return err
	}
	sv.CamposPersonalizados, err = conformFields(sv.CamposPersonalizados, schema, true)
	return err
}
