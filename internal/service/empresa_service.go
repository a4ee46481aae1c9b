package service

import (
	"context"
	"fmt"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

// EmpresaService handles company records
type EmpresaService struct {
	deps Deps
	cfg  *ConfigService
}

// NewEmpresaService creates a new empresa service
func NewEmpresaService(d Deps, cfg *ConfigService) *EmpresaService {
	return &EmpresaService{deps: d, cfg: cfg}
}

// Create stores a new empresa and returns its id
func (s *EmpresaService) Create(ctx context.Context, e *models.Empresa) (models.ID, error) {
	if err := s.prepare(ctx, e); err != nil {
		return "", err
	}

	now := models.Now()
	e.ID = models.NewID()
	e.Activo = true
	e.CreadoEn = now
	e.ActualizadoEn = now

	if err := s.deps.Store.CreateEmpresa(ctx, e); err != nil {
		return "", fmt.Errorf("failed to create empresa: %w", err)
	}
	return e.ID, nil
}

// Get returns one empresa
func (s *EmpresaService) Get(ctx context.Context, id models.ID) (*models.Empresa, error) {
	e, err := s.deps.Store.GetEmpresa(ctx, id)
	if err != nil {
		return nil, lookup(err, "Empresa no encontrada")
	}
	schema, err := s.cfg.schema(ctx, models.EntidadEmpresas)
	if err != nil {
		return nil, err
	}
	e.CamposPersonalizados = e.CamposPersonalizados.Interpret(schema)
	return e, nil
}

// List returns every empresa
func (s *EmpresaService) List(ctx context.Context) ([]*models.Empresa, error) {
	empresas, err := s.deps.Store.ListEmpresas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list empresas: %w", err)
	}
	return empresas, nil
}

// Update merges body onto the stored empresa
func (s *EmpresaService) Update(ctx context.Context, id models.ID, body []byte) error {
	p, err := decodePatch(body)
	if err != nil {
		return err
	}
	e, err := s.deps.Store.GetEmpresa(ctx, id)
	if err != nil {
		return lookup(err, "Empresa no encontrada")
	}
	if err := p.applyTo(e); err != nil {
		return err
	}
	if err := s.prepare(ctx, e); err != nil {
		return err
	}

	e.ActualizadoEn = models.Now()
	if err := s.deps.Store.UpdateEmpresa(ctx, e); err != nil {
		return lookup(err, "Empresa no encontrada")
	}
	return nil
}

// Delete removes an empresa. Its equipos, bitácoras and servicios are kept.
func (s *EmpresaService) Delete(ctx context.Context, id models.ID) error {
	if err := s.deps.Store.DeleteEmpresa(ctx, id); err != nil {
		return lookup(err, "Empresa no encontrada")
	}
	return nil
}

func (s *EmpresaService) prepare(ctx context.Context, e *models.Empresa) error {
	if err := validate(e); err != nil {
		return err
	}
	schema, err := s.cfg.schema(ctx, models.EntidadEmpresas)
	if err != nil {
		return err
	}
	e.CamposPersonalizados, err = conformFields(e.CamposPersonalizados, schema, true)
	return err
}
