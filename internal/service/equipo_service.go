package service

import (
	"context"
	"fmt"

	"github.com/aleckzsalas-29/itsm2/internal/database"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

// EquipoService handles equipment records and their stored credentials
type EquipoService struct {
	deps Deps
	cfg  *ConfigService
}

// NewEquipoService creates a new equipo service
func NewEquipoService(d Deps, cfg *ConfigService) *EquipoService {
	return &EquipoService{deps: d, cfg: cfg}
}

// Create stores a new equipo, encrypting any supplied passwords
func (s *EquipoService) Create(ctx context.Context, e *models.Equipo) (models.ID, error) {
	if e.Estado == "" {
		e.Estado = models.EstadoActivo
	}
	if err := s.prepare(ctx, e); err != nil {
		return "", err
	}

	var err error
	if e.PasswordWindowsEncrypted, err = s.deps.encryptOptional(e.PasswordWindows); err != nil {
		return "", err
	}
	if e.PasswordCorreoEncrypted, err = s.deps.encryptOptional(e.PasswordCorreo); err != nil {
		return "", err
	}
	e.PasswordWindows = nil
	e.PasswordCorreo = nil

	now := models.Now()
	e.ID = models.NewID()
	e.CreadoEn = now
	e.ActualizadoEn = now

	if err := s.deps.Store.CreateEquipo(ctx, e); err != nil {
		return "", fmt.Errorf("failed to create equipo: %w", err)
	}
	return e.ID, nil
}

// Get returns one equipo. Decrypted passwords are attached only when
// disclose is set and role may see credentials.
func (s *EquipoService) Get(ctx context.Context, id models.ID, disclose bool, role models.Role) (*models.Equipo, error) {
	e, err := s.deps.Store.GetEquipo(ctx, id)
	if err != nil {
		return nil, lookup(err, "Equipo no encontrado")
	}

	e.PasswordWindows = nil
	e.PasswordCorreo = nil
	if disclose && role.CanDisclose() {
		if e.HasPasswordWindows() {
			v := s.deps.Vault.Reveal(e.PasswordWindowsEncrypted)
			e.PasswordWindows = &v
		}
		if e.HasPasswordCorreo() {
			v := s.deps.Vault.Reveal(e.PasswordCorreoEncrypted)
			e.PasswordCorreo = &v
		}
	}

	schema, err := s.cfg.schema(ctx, models.EntidadEquipos)
	if err != nil {
		return nil, err
	}
	e.CamposPersonalizados = e.CamposPersonalizados.Interpret(schema)
	e.CamposDinamicos = e.CamposDinamicos.Interpret(schema)
	return e, nil
}

// List returns equipos, optionally of one empresa. Credentials are never
// attached.
func (s *EquipoService) List(ctx context.Context, empresaID models.ID) ([]*models.Equipo, error) {
	equipos, err := s.deps.Store.ListEquipos(ctx, database.EquipoFilter{EmpresaID: empresaID})
	if err != nil {
		return nil, fmt.Errorf("failed to list equipos: %w", err)
	}
	for _, e := range equipos {
		e.PasswordWindows = nil
		e.PasswordCorreo = nil
	}
	return equipos, nil
}

// Update merges body onto the stored equipo. Non-empty password_windows and
// password_correo values replace the stored ciphertext.
func (s *EquipoService) Update(ctx context.Context, id models.ID, body []byte) error {
	p, err := decodePatch(body)
	if err != nil {
		return err
	}
	e, err := s.deps.Store.GetEquipo(ctx, id)
	if err != nil {
		return lookup(err, "Equipo no encontrado")
	}

	pwWindows, setWindows, err := p.takeString("password_windows")
	if err != nil {
		return err
	}
	pwCorreo, setCorreo, err := p.takeString("password_correo")
	if err != nil {
		return err
	}

	if err := p.applyTo(e); err != nil {
		return err
	}
	if err := s.prepare(ctx, e); err != nil {
		return err
	}

	if setWindows {
		if e.PasswordWindowsEncrypted, err = s.deps.encryptOptional(&pwWindows); err != nil {
			return err
		}
	}
	if setCorreo {
		if e.PasswordCorreoEncrypted, err = s.deps.encryptOptional(&pwCorreo); err != nil {
			return err
		}
	}

	e.ActualizadoEn = models.Now()
	if err := s.deps.Store.UpdateEquipo(ctx, e); err != nil {
		return lookup(err, "Equipo no encontrado")
	}
	return nil
}

// Delete removes an equipo
func (s *EquipoService) Delete(ctx context.Context, id models.ID) error {
	if err := s.deps.Store.DeleteEquipo(ctx, id); err != nil {
		return lookup(err, "Equipo no encontrado")
	}
	return nil
}

func (s *EquipoService) prepare(ctx context.Context, e *models.Equipo) error {
	if err := validate(e); err != nil {
		return err
	}
	if !validEstado(e.Estado, models.EquipoEstados) {
		return invalid("estado inválido: %s", e.Estado)
	}
	if _, err := s.deps.Store.GetEmpresa(ctx, e.EmpresaID); err != nil {
		return lookup(err, "Empresa no encontrada")
	}

	schema, err := s.cfg.schema(ctx, models.EntidadEquipos)
	if err != nil {
		return err
	}
	// campos_dinamicos follows the configured schema; campos_personalizados is free-form
	e.CamposPersonalizados = e.CamposPersonalizados.Interpret(schema)
	e.CamposDinamicos, err = conformFields(e.CamposDinamicos, schema, false)
	return err
}
