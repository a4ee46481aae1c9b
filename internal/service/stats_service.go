package service

import (
	"context"
	"fmt"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

// Estadisticas are the dashboard counters
type Estadisticas struct {
	TotalEmpresas       int            `json:"total_empresas"`
	TotalEquipos        int            `json:"total_equipos"`
	EquiposActivos      int            `json:"equipos_activos"`
	EquiposPorEstado    map[string]int `json:"equipos_por_estado"`
	TotalBitacoras      int            `json:"total_bitacoras"`
	BitacorasPendientes int            `json:"bitacoras_pendientes"`
	TotalServicios      int            `json:"total_servicios"`
	CostoTotalServicios float64        `json:"costo_total_servicios"`
}

// StatsService computes dashboard statistics
type StatsService struct {
	deps Deps
}

// NewStatsService creates a new statistics service
func NewStatsService(d Deps) *StatsService {
	return &StatsService{deps: d}
}

// Get computes the current counters from store aggregates. Servicio
// figures cover active servicios only.
func (s *StatsService) Get(ctx context.Context) (*Estadisticas, error) {
	empresas, err := s.deps.Store.CountEmpresas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count empresas: %w", err)
	}
	equipos, err := s.deps.Store.CountEquiposByEstado(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count equipos: %w", err)
	}
	bitacoras, err := s.deps.Store.CountBitacorasByEstado(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count bitácoras: %w", err)
	}
	servicios, err := s.deps.Store.TotalServiciosActivos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to total servicios: %w", err)
	}

	st := &Estadisticas{
		TotalEmpresas:       empresas,
		EquiposPorEstado:    make(map[string]int, len(models.EquipoEstados)),
		BitacorasPendientes: bitacoras[models.EstadoPendiente],
		TotalServicios:      servicios.Count,
		CostoTotalServicios: servicios.CostoMensual,
	}
	for _, estado := range models.EquipoEstados {
		st.EquiposPorEstado[estado] = 0
	}
	for estado, n := range equipos {
		st.EquiposPorEstado[estado] = n
		st.TotalEquipos += n
	}
	st.EquiposActivos = st.EquiposPorEstado[models.EstadoActivo]
	for _, n := range bitacoras {
		st.TotalBitacoras += n
	}
	return st, nil
}
