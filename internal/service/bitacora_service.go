package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aleckzsalas-29/itsm2/internal/database"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/aleckzsalas-29/itsm2/internal/report"
	"github.com/aleckzsalas-29/itsm2/internal/tasks"
)

// BitacoraService handles maintenance logs
type BitacoraService struct {
	deps Deps
	cfg  *ConfigService
	now  func() time.Time
}

// NewBitacoraService creates a new bitácora service
func NewBitacoraService(d Deps, cfg *ConfigService) *BitacoraService {
	return &BitacoraService{deps: d, cfg: cfg, now: time.Now}
}

// Create stores a new bitácora and schedules the maintenance notification
// for the owning empresa. The técnico defaults to the caller.
func (s *BitacoraService) Create(ctx context.Context, b *models.Bitacora, caller *models.User) (models.ID, error) {
	if b.Estado == "" {
		b.Estado = models.EstadoPendiente
	}
	if b.TecnicoID.IsZero() && caller != nil {
		b.TecnicoID = caller.ID
	}
	if b.Fecha.IsZero() {
		b.Fecha = models.At(s.now().Truncate(time.Microsecond))
	}

	refs, err := s.prepare(ctx, b)
	if err != nil {
		return "", err
	}

	b.ID = models.NewID()
	b.CreadoEn = models.Now()
	if err := s.deps.Store.CreateBitacora(ctx, b); err != nil {
		return "", fmt.Errorf("failed to create bitácora: %w", err)
	}

	s.deps.enqueue(tasks.KindMaintenanceNotification, map[string]string{
		"to":          refs.empresa.Email,
		"equipo":      refs.equipo.Nombre,
		"fecha":       b.Fecha.Display(),
		"tecnico":     refs.tecnico.Nombre,
		"bitacora_id": b.ID.String(),
	})
	return b.ID, nil
}

// Get returns one bitácora
func (s *BitacoraService) Get(ctx context.Context, id models.ID) (*models.Bitacora, error) {
	b, err := s.deps.Store.GetBitacora(ctx, id)
	if err != nil {
		return nil, lookup(err, "Bitácora no encontrada")
	}
	schema, err := s.cfg.schema(ctx, models.EntidadBitacoras)
	if err != nil {
		return nil, err
	}
	b.CamposPersonalizados = b.CamposPersonalizados.Interpret(schema)
	return b, nil
}

// List returns bitácoras newest first, optionally filtered
func (s *BitacoraService) List(ctx context.Context, equipoID, empresaID models.ID) ([]*models.Bitacora, error) {
	bitacoras, err := s.deps.Store.ListBitacoras(ctx, database.BitacoraFilter{EquipoID: equipoID, EmpresaID: empresaID})
	if err != nil {
		return nil, fmt.Errorf("failed to list bitácoras: %w", err)
	}
	return bitacoras, nil
}

// Update merges body onto the stored bitácora
func (s *BitacoraService) Update(ctx context.Context, id models.ID, body []byte) error {
	p, err := decodePatch(body)
	if err != nil {
		return err
	}
	b, err := s.deps.Store.GetBitacora(ctx, id)
	if err != nil {
		return lookup(err, "Bitácora no encontrada")
	}
	if err := p.applyTo(b); err != nil {
		return err
	}
	if b.Fecha.IsZero() {
		return invalid("fecha es requerida")
	}
	if _, err := s.prepare(ctx, b); err != nil {
		return err
	}

	if err := s.deps.Store.UpdateBitacora(ctx, b); err != nil {
		return lookup(err, "Bitácora no encontrada")
	}
	return nil
}

// Delete removes a bitácora
func (s *BitacoraService) Delete(ctx context.Context, id models.ID) error {
	if err := s.deps.Store.DeleteBitacora(ctx, id); err != nil {
		return lookup(err, "Bitácora no encontrada")
	}
	return nil
}

// ExportRequest selects the bitácoras of one empresa for CSV export
type ExportRequest struct {
	EmpresaID   models.ID
	Periodo     string
	FechaInicio string
}

// Export returns the CSV rows for req, newest first. Missing equipos and
// técnicos are shown as N/A.
func (s *BitacoraService) Export(ctx context.Context, req ExportRequest) ([]report.CSVRow, error) {
	var inicio time.Time
	if req.FechaInicio != "" {
		ts, err := models.ParseTimestamp(req.FechaInicio)
		if err != nil {
			return nil, invalid("fecha_inicio inválida: %s", req.FechaInicio)
		}
		inicio = ts.Time
	}
	desde, hasta := report.ExportRange(report.Periodo(req.Periodo), inicio, s.now().UTC())

	bitacoras, err := s.deps.Store.ListBitacoras(ctx, database.BitacoraFilter{
		EmpresaID: req.EmpresaID,
		Desde:     desde,
		Hasta:     hasta,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bitácoras: %w", err)
	}

	equipos := make(map[models.ID]string)
	tecnicos := make(map[models.ID]string)
	rows := make([]report.CSVRow, 0, len(bitacoras))
	for _, b := range bitacoras {
		equipo, ok := equipos[b.EquipoID]
		if !ok {
			equipo = "N/A"
			if e, err := s.deps.Store.GetEquipo(ctx, b.EquipoID); err == nil {
				equipo = e.Nombre
			}
			equipos[b.EquipoID] = equipo
		}
		tecnico, ok := tecnicos[b.TecnicoID]
		if !ok {
			tecnico = "N/A"
			if u, err := s.deps.Store.GetUser(ctx, b.TecnicoID); err == nil {
				tecnico = u.Nombre
			}
			tecnicos[b.TecnicoID] = tecnico
		}

		rows = append(rows, report.CSVRow{
			Fecha:             b.Fecha.Display(),
			Equipo:            equipo,
			Tipo:              b.Tipo,
			Descripcion:       b.Descripcion,
			Tecnico:           tecnico,
			Estado:            b.Estado,
			Observaciones:     b.Observaciones,
			AnotacionesExtras: b.AnotacionesExtras,
		})
	}
	return rows, nil
}

type bitacoraRefs struct {
	empresa *models.Empresa
	equipo  *models.Equipo
	tecnico *models.User
}

func (s *BitacoraService) prepare(ctx context.Context, b *models.Bitacora) (*bitacoraRefs, error) {
	if err := validate(b); err != nil {
		return nil, err
	}
	if !validEstado(b.Estado, models.BitacoraEstados) {
		return nil, invalid("estado inválido: %s", b.Estado)
	}
	if b.TecnicoID.IsZero() {
		return nil, invalid("tecnico_id es requerido")
	}

	var refs bitacoraRefs
	var err error
	if refs.empresa, err = s.deps.Store.GetEmpresa(ctx, b.EmpresaID); err != nil {
		return nil, lookup(err, "Empresa no encontrada")
	}
	if refs.equipo, err = s.deps.Store.GetEquipo(ctx, b.EquipoID); err != nil {
		return nil, lookup(err, "Equipo no encontrado")
	}
	if refs.tecnico, err = s.deps.Store.GetUser(ctx, b.TecnicoID); err != nil {
		return nil, lookup(err, "Técnico no encontrado")
	}
	if refs.equipo.EmpresaID != b.EmpresaID {
		return nil, invalid("el equipo no pertenece a la empresa indicada")
	}

	schema, err := s.cfg.schema(ctx, models.EntidadBitacoras)
	if err != nil {
		return nil, err
	}
	if b.CamposPersonalizados, err = conformFields(b.CamposPersonalizados, schema, true); err != nil {
		return nil, err
	}
	return &refs, nil
}
