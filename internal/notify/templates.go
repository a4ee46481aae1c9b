package notify

import "html/template"

type maintenanceData struct {
	Equipo  string
	Fecha   string
	Tecnico string
}

type reportData struct {
	Empresa string
	Tipo    string
}

const layoutStart = `<html>
  <body style="font-family: Arial, sans-serif; padding: 20px;">`

const layoutEnd = `
    <hr style="border: none; border-top: 1px solid #E2E8F0; margin: 20px 0;">
    <p style="font-size: 12px; color: #64748B;">Este es un mensaje automático del Sistema ITSM.</p>
  </body>
</html>`

var maintenanceTemplate = template.Must(template.New("maintenance").Parse(layoutStart + `
    <h2 style="color: #0F172A;">Notificación de Mantenimiento</h2>
    <p>Se ha programado un mantenimiento para el siguiente equipo:</p>
    <div style="background-color: #F1F5F9; padding: 15px; border-radius: 5px; margin: 15px 0;">
      <p><strong>Equipo:</strong> {{.Equipo}}</p>
      <p><strong>Fecha:</strong> {{.Fecha}}</p>
      <p><strong>Técnico asignado:</strong> {{.Tecnico}}</p>
    </div>
    <p>Por favor, asegúrese de que el equipo esté disponible en la fecha indicada.</p>` + layoutEnd))

var reportTemplate = template.Must(template.New("report").Parse(layoutStart + `
    <h2 style="color: #0F172A;">Reporte Generado</h2>
    <p>Se ha generado un nuevo reporte para su empresa:</p>
    <div style="background-color: #F1F5F9; padding: 15px; border-radius: 5px; margin: 15px 0;">
      <p><strong>Empresa:</strong> {{.Empresa}}</p>
      <p><strong>Tipo de reporte:</strong> {{.Tipo}}</p>
    </div>
    <p>El reporte está disponible para descargar en el sistema.</p>` + layoutEnd))
