package report

import (
	"encoding/csv"
	"io"
	"time"
)

// CSVHeader is the column order of the bitácora export
var CSVHeader = []string{
	"fecha", "equipo", "tipo", "descripcion", "tecnico", "estado", "observaciones", "anotaciones_extras",
}

// CSVRow is one exported bitácora with names already resolved
type CSVRow struct {
	Fecha             string
	Equipo            string
	Tipo              string
	Descripcion       string
	Tecnico           string
	Estado            string
	Observaciones     string
	AnotacionesExtras string
}

// WriteBitacorasCSV writes the header and rows
func WriteBitacorasCSV(w io.Writer, rows []CSVRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.Fecha, r.Equipo, r.Tipo, r.Descripcion, r.Tecnico, r.Estado, r.Observaciones, r.AnotacionesExtras}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Periodo names an export window
type Periodo string

const (
	PeriodoDia    Periodo = "dia"
	PeriodoSemana Periodo = "semana"
	PeriodoMes    Periodo = "mes"
	// PeriodoOtro covers any custom range starting at fecha_inicio
	PeriodoOtro Periodo = "otro"
)

// ExportRange returns the [desde, hasta] window for periodo ending at now.
// Other periodos start at fechaInicio, or 30 days back when it is zero.
func ExportRange(periodo Periodo, fechaInicio, now time.Time) (time.Time, time.Time) {
	switch periodo {
	case PeriodoDia:
		return now.AddDate(0, 0, -1), now
	case PeriodoSemana:
		return now.AddDate(0, 0, -7), now
	case PeriodoMes:
		return now.AddDate(0, 0, -30), now
	}
	if !fechaInicio.IsZero() {
		return fechaInicio, now
	}
	return now.AddDate(0, 0, -30), now
}

// CSVFilename is the attachment name for an export. Periodos other than
// dia, semana and mes are named otro.
func CSVFilename(empresaID, periodo string) string {
	switch Periodo(periodo) {
	case PeriodoDia, PeriodoSemana, PeriodoMes:
	default:
		periodo = string(PeriodoOtro)
	}
	return "bitacoras_" + empresaID + "_" + periodo + ".csv"
}
