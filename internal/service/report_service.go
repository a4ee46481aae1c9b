package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/database"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/aleckzsalas-29/itsm2/internal/report"
	"github.com/aleckzsalas-29/itsm2/internal/tasks"
)

// ErrReportFailed is returned when a report could not be rendered or written
var ErrReportFailed = errors.New("report generation failed")

// TipoReporteEmpresa names the company report in notifications
const TipoReporteEmpresa = "Reporte de Empresa"

// ReportService gathers report data and drives the report compiler
type ReportService struct {
	deps Deps
}

// NewReportService creates a new report service
func NewReportService(d Deps) *ReportService {
	return &ReportService{deps: d}
}

// Empresa renders the company report and schedules the report notification
func (s *ReportService) Empresa(ctx context.Context, id models.ID, plantilla string) (string, error) {
	empresa, err := s.deps.Store.GetEmpresa(ctx, id)
	if err != nil {
		return "", lookup(err, "Empresa no encontrada")
	}

	data := report.EmpresaData{Empresa: empresa}
	if data.Equipos, err = s.deps.Store.ListEquipos(ctx, database.EquipoFilter{EmpresaID: id}); err != nil {
		return "", fmt.Errorf("failed to list equipos: %w", err)
	}
	if data.Bitacoras, err = s.deps.Store.ListBitacoras(ctx, database.BitacoraFilter{EmpresaID: id}); err != nil {
		return "", fmt.Errorf("failed to list bitácoras: %w", err)
	}
	if data.Servicios, err = s.deps.Store.ListServicios(ctx, database.ServicioFilter{EmpresaID: id}); err != nil {
		return "", fmt.Errorf("failed to list servicios: %w", err)
	}

	brand, err := s.branding(ctx)
	if err != nil {
		return "", err
	}

	filename, err := s.deps.Reports.EmpresaReport(data, brand, plantilla)
	if err != nil {
		s.deps.Logger.Error("Failed to generate report", zap.String("empresa_id", id.String()), zap.Error(err))
		return "", ErrReportFailed
	}

	s.deps.enqueue(tasks.KindReportNotification, map[string]string{
		"to":       empresa.Email,
		"empresa":  empresa.Nombre,
		"tipo":     TipoReporteEmpresa,
		"filename": filename,
	})
	return filename, nil
}

// Equipo renders the equipment report
func (s *ReportService) Equipo(ctx context.Context, id models.ID, plantilla string) (string, error) {
	equipo, err := s.deps.Store.GetEquipo(ctx, id)
	if err != nil {
		return "", lookup(err, "Equipo no encontrado")
	}

	data := report.EquipoData{Equipo: equipo}
	if empresa, err := s.deps.Store.GetEmpresa(ctx, equipo.EmpresaID); err == nil {
		data.Empresa = empresa
	} else if !errors.Is(err, database.ErrNotFound) {
		return "", fmt.Errorf("failed to get empresa: %w", err)
	}
	if data.Bitacoras, err = s.deps.Store.ListBitacoras(ctx, database.BitacoraFilter{EquipoID: id}); err != nil {
		return "", fmt.Errorf("failed to list bitácoras: %w", err)
	}

	brand, err := s.branding(ctx)
	if err != nil {
		return "", err
	}

	filename, err := s.deps.Reports.EquipoReport(data, brand, plantilla)
	if err != nil {
		s.deps.Logger.Error("Failed to generate report", zap.String("equipo_id", id.String()), zap.Error(err))
		return "", ErrReportFailed
	}
	return filename, nil
}

// Path resolves a generated report for download
func (s *ReportService) Path(filename string) (string, error) {
	path, err := s.deps.Reports.Path(filename)
	switch {
	case errors.Is(err, report.ErrInvalidFilename):
		return "", invalid("nombre de reporte inválido")
	case errors.Is(err, report.ErrReportNotFound):
		return "", newError(ErrNotFound, "Reporte no encontrado")
	case err != nil:
		return "", err
	}
	return path, nil
}

func (s *ReportService) branding(ctx context.Context) (report.Branding, error) {
	c, err := s.deps.Store.GetConfiguracion(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return report.Branding{}, nil
		}
		return report.Branding{}, fmt.Errorf("failed to get configuration: %w", err)
	}
	return report.BrandingFrom(c), nil
}
