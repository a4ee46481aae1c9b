package report

import (
	"strconv"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

var equipoColumns = []column{
	{"Nombre", 30, 20}, {"Tipo", 25, 15}, {"Marca", 25, 15}, {"Modelo", 25, 15},
	{"Serie", 30, 18}, {"Estado", 20, 13}, {"Ubicación", 35, 22},
}

var bitacoraColumns = []column{
	{"Fecha", 25, 16}, {"Tipo", 30, 20}, {"Descripción", 80, 55}, {"Estado", 25, 15}, {"Costo", 30, 14},
}

var servicioColumns = []column{
	{"Nombre", 40, 25}, {"Tipo", 25, 18}, {"Proveedor", 35, 22}, {"Costo Mensual", 30, 14},
	{"Renovación", 30, 10}, {"Estado", 30, 10},
}

func renderEmpresa(doc *document, data EmpresaData) {
	e := data.Empresa

	doc.section("Empresa: " + e.Nombre)
	rfc := e.RFC
	if rfc == "" {
		rfc = "N/A"
	}
	doc.pairs(
		"RFC", rfc,
		"Dirección", e.Direccion,
		"Teléfono", e.Telefono,
		"Email", e.Email,
		"Contacto", e.Contacto,
	)
	doc.fields("Campos personalizados", e.CamposPersonalizados)

	doc.section("Equipos")
	if len(data.Equipos) == 0 {
		doc.note("No se encontraron equipos")
	} else {
		rows := make([][]string, 0, len(data.Equipos))
		for _, eq := range data.Equipos {
			rows = append(rows, []string{eq.Nombre, eq.Tipo, eq.Marca, eq.Modelo, eq.NumeroSerie, eq.Estado, eq.Ubicacion})
		}
		doc.table(equipoColumns, rows)

		for _, eq := range data.Equipos {
			doc.section("Detalle: " + eq.Nombre)
			equipoDetails(doc, eq)
		}
	}

	doc.section("Bitácoras de Mantenimiento")
	bitacoraHistory(doc, data.Bitacoras)

	if len(data.Servicios) > 0 {
		doc.section("Servicios Contratados")
		rows := make([][]string, 0, len(data.Servicios))
		for _, s := range data.Servicios {
			estado := models.EstadoInactivo
			if s.Activo {
				estado = models.EstadoActivo
			}
			rows = append(rows, []string{s.Nombre, s.Tipo, s.Proveedor, money(s.CostoMensual), s.FechaRenovacion.DisplayDate(), estado})
		}
		doc.table(servicioColumns, rows)
	}

	doc.section("Resumen")
	porEstado := make(map[string]int)
	for _, eq := range data.Equipos {
		porEstado[eq.Estado]++
	}
	var costo float64
	for _, s := range data.Servicios {
		if s.Activo {
			costo += s.CostoMensual
		}
	}
	doc.pairs(
		"Total de Equipos", strconv.Itoa(len(data.Equipos)),
		"Equipos Activos", strconv.Itoa(porEstado[models.EstadoActivo]),
		"Equipos Inactivos", strconv.Itoa(porEstado[models.EstadoInactivo]),
		"Equipos en Mantenimiento", strconv.Itoa(porEstado[models.EstadoMantenimiento]),
		"Mantenimientos Registrados", strconv.Itoa(len(data.Bitacoras)),
		"Costo Mensual en Servicios", money(costo),
	)
}

func renderEquipo(doc *document, data EquipoData) {
	eq := data.Equipo

	doc.section("Equipo: " + eq.Nombre)
	empresa := ""
	if data.Empresa != nil {
		empresa = data.Empresa.Nombre
	}
	doc.pairs(
		"Empresa", empresa,
		"Tipo", eq.Tipo,
		"Marca", eq.Marca,
		"Modelo", eq.Modelo,
		"Número de Serie", eq.NumeroSerie,
		"Ubicación", eq.Ubicacion,
		"Estado", eq.Estado,
	)

	doc.section("Hardware")
	doc.pairs(
		"Procesador", eq.Procesador,
		"Memoria RAM", eq.MemoriaRAM,
		"Disco Duro", eq.DiscoDuro,
		"Espacio Disponible", eq.EspacioDisponible,
		"Componentes", eq.Componentes,
	)

	doc.section("Información Adicional")
	equipoDetails(doc, eq)
	doc.fields("Campos dinámicos", eq.CamposDinamicos)

	doc.section("Historial de Mantenimiento")
	bitacoraHistory(doc, data.Bitacoras)
}

// equipoDetails prints purchase, network, credential presence and custom
// fields. Credential values are never printed.
func equipoDetails(doc *document, eq *models.Equipo) {
	costo := ""
	if eq.CostoCompra != nil {
		costo = money(*eq.CostoCompra)
	}
	doc.pairs(
		"Fecha de Compra", dateOrEmpty(eq.FechaCompra),
		"Proveedor", eq.ProveedorCompra,
		"Costo de Compra", costo,
		"Garantía Hasta", dateOrEmpty(eq.GarantiaHasta),
		"Dirección IP", eq.DireccionIP,
		"Dirección MAC", eq.DireccionMAC,
		"Hostname", eq.Hostname,
		"Usuario Windows", eq.UsuarioWindows,
		"Contraseña Windows", presence(eq.HasPasswordWindows()),
		"Correo", eq.CorreoUsuario,
		"Contraseña Correo", presence(eq.HasPasswordCorreo()),
		"Notas", eq.Notas,
	)
	doc.fields("Campos personalizados", eq.CamposPersonalizados)
}

func bitacoraHistory(doc *document, bitacoras []*models.Bitacora) {
	if len(bitacoras) == 0 {
		doc.note("No se encontraron bitácoras")
		return
	}
	rows := make([][]string, 0, len(bitacoras))
	for _, b := range bitacoras {
		costo := "-"
		if b.Costo != nil && *b.Costo != 0 {
			costo = money(*b.Costo)
		}
		rows = append(rows, []string{b.Fecha.DisplayDate(), b.Tipo, b.Descripcion, b.Estado, costo})
	}
	doc.table(bitacoraColumns, rows)
}
