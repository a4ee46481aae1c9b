// Package models defines the data structures stored by the ITSM backend:
// users, empresas, equipos, bitácoras, servicios and the singleton
// configuration record, plus the identifier, timestamp and custom field
// types they share. Field names follow the Spanish wire format used by the
// frontend.
package models

// Role is a user's access level
type Role string

const (
	RoleAdmin   Role = "administrador"
	RoleTecnico Role = "tecnico"
	RoleCliente Role = "cliente"
)

// AllRoles lists every role
var AllRoles = []Role{RoleAdmin, RoleTecnico, RoleCliente}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTecnico, RoleCliente:
		return true
	}
	return false
}

// CanDisclose reports whether r may see decrypted credentials
func (r Role) CanDisclose() bool {
	return r == RoleAdmin || r == RoleTecnico
}

// Equipment states
const (
	EstadoActivo        = "Activo"
	EstadoInactivo      = "Inactivo"
	EstadoMantenimiento = "Mantenimiento"
)

// EquipoEstados lists every equipment state in display order
var EquipoEstados = []string{EstadoActivo, EstadoInactivo, EstadoMantenimiento}

// Bitácora states
const (
	EstadoPendiente  = "Pendiente"
	EstadoEnProgreso = "En Progreso"
	EstadoCompletado = "Completado"
)

// BitacoraEstados lists every bitácora state in display order
var BitacoraEstados = []string{EstadoPendiente, EstadoEnProgreso, EstadoCompletado}

// User represents a system user. PasswordHash never leaves the server.
type User struct {
	ID           ID        `json:"_id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	Nombre       string    `json:"nombre" bson:"nombre"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Rol          Role      `json:"rol" bson:"rol"`
	Activo       bool      `json:"activo" bson:"activo"`
	CreadoEn     Timestamp `json:"creado_en" bson:"creado_en"`
}

// Empresa is a client company owning equipment, logs and services
type Empresa struct {
	ID                   ID        `json:"_id" bson:"_id"`
	Nombre               string    `json:"nombre" bson:"nombre" binding:"required"`
	RFC                  string    `json:"rfc,omitempty" bson:"rfc,omitempty"`
	Direccion            string    `json:"direccion" bson:"direccion" binding:"required"`
	Telefono             string    `json:"telefono" bson:"telefono" binding:"required"`
	Email                string    `json:"email" bson:"email" binding:"required,email"`
	Contacto             string    `json:"contacto" bson:"contacto" binding:"required"`
	Activo               bool      `json:"activo" bson:"activo"`
	CreadoEn             Timestamp `json:"creado_en" bson:"creado_en"`
	ActualizadoEn        Timestamp `json:"actualizado_en" bson:"actualizado_en"`
	CamposPersonalizados Fields    `json:"campos_personalizados" bson:"campos_personalizados"`
}

// Equipo is a piece of equipment owned by an Empresa. The encrypted
// credential fields are stored but never serialized; PasswordWindows and
// PasswordCorreo carry plaintext only on input and on explicit disclosure.
type Equipo struct {
	ID          ID     `json:"_id" bson:"_id"`
	EmpresaID   ID     `json:"empresa_id" bson:"empresa_id" binding:"required"`
	Nombre      string `json:"nombre" bson:"nombre" binding:"required"`
	Tipo        string `json:"tipo" bson:"tipo" binding:"required"`
	Marca       string `json:"marca" bson:"marca" binding:"required"`
	Modelo      string `json:"modelo" bson:"modelo" binding:"required"`
	NumeroSerie string `json:"numero_serie" bson:"numero_serie" binding:"required"`
	Ubicacion   string `json:"ubicacion" bson:"ubicacion" binding:"required"`
	Estado      string `json:"estado" bson:"estado"`

	// Hardware
	Procesador        string `json:"procesador,omitempty" bson:"procesador,omitempty"`
	MemoriaRAM        string `json:"memoria_ram,omitempty" bson:"memoria_ram,omitempty"`
	DiscoDuro         string `json:"disco_duro,omitempty" bson:"disco_duro,omitempty"`
	EspacioDisponible string `json:"espacio_disponible,omitempty" bson:"espacio_disponible,omitempty"`
	Componentes       string `json:"componentes,omitempty" bson:"componentes,omitempty"`

	// Network
	DireccionIP  string `json:"direccion_ip,omitempty" bson:"direccion_ip,omitempty"`
	DireccionMAC string `json:"direccion_mac,omitempty" bson:"direccion_mac,omitempty"`
	Hostname     string `json:"hostname,omitempty" bson:"hostname,omitempty"`

	// Purchase and warranty
	FechaCompra     *Timestamp `json:"fecha_compra,omitempty" bson:"fecha_compra,omitempty"`
	ProveedorCompra string     `json:"proveedor_compra,omitempty" bson:"proveedor_compra,omitempty"`
	CostoCompra     *float64   `json:"costo_compra,omitempty" bson:"costo_compra,omitempty"`
	GarantiaHasta   *Timestamp `json:"garantia_hasta,omitempty" bson:"garantia_hasta,omitempty"`

	// Accounts
	UsuarioWindows           string  `json:"usuario_windows,omitempty" bson:"usuario_windows,omitempty"`
	CorreoUsuario            string  `json:"correo_usuario,omitempty" bson:"correo_usuario,omitempty" binding:"omitempty,email"`
	PasswordWindowsEncrypted string  `json:"-" bson:"password_windows_encrypted,omitempty"`
	PasswordCorreoEncrypted  string  `json:"-" bson:"password_correo_encrypted,omitempty"`
	PasswordWindows          *string `json:"password_windows,omitempty" bson:"-"`
	PasswordCorreo           *string `json:"password_correo,omitempty" bson:"-"`

	Notas                string    `json:"notas,omitempty" bson:"notas,omitempty"`
	CamposPersonalizados Fields    `json:"campos_personalizados" bson:"campos_personalizados"`
	CamposDinamicos      Fields    `json:"campos_dinamicos" bson:"campos_dinamicos"`
	CreadoEn             Timestamp `json:"creado_en" bson:"creado_en"`
	ActualizadoEn        Timestamp `json:"actualizado_en" bson:"actualizado_en"`
}

// HasPasswordWindows reports whether a Windows password is stored
func (e *Equipo) HasPasswordWindows() bool { return e.PasswordWindowsEncrypted != "" }

// HasPasswordCorreo reports whether an email password is stored
func (e *Equipo) HasPasswordCorreo() bool { return e.PasswordCorreoEncrypted != "" }

// Bitacora is a maintenance log entry for one Equipo
type Bitacora struct {
	ID            ID        `json:"_id" bson:"_id"`
	EquipoID      ID        `json:"equipo_id" bson:"equipo_id" binding:"required"`
	EmpresaID     ID        `json:"empresa_id" bson:"empresa_id" binding:"required"`
	TecnicoID     ID        `json:"tecnico_id" bson:"tecnico_id"`
	Tipo          string    `json:"tipo" bson:"tipo" binding:"required"`
	Descripcion   string    `json:"descripcion" bson:"descripcion" binding:"required"`
	Fecha         Timestamp `json:"fecha" bson:"fecha"`
	Estado        string    `json:"estado" bson:"estado"`
	Observaciones string    `json:"observaciones,omitempty" bson:"observaciones,omitempty"`
	Costo         *float64  `json:"costo,omitempty" bson:"costo,omitempty"`

	// Minutes
	TiempoEstimado *int `json:"tiempo_estimado,omitempty" bson:"tiempo_estimado,omitempty"`
	TiempoReal     *int `json:"tiempo_real,omitempty" bson:"tiempo_real,omitempty"`

	// Preventive checklist
	LimpiezaFisica        *bool `json:"limpieza_fisica,omitempty" bson:"limpieza_fisica,omitempty"`
	ActualizacionSoftware *bool `json:"actualizacion_software,omitempty" bson:"actualizacion_software,omitempty"`
	RevisionHardware      *bool `json:"revision_hardware,omitempty" bson:"revision_hardware,omitempty"`
	RespaldoDatos         *bool `json:"respaldo_datos,omitempty" bson:"respaldo_datos,omitempty"`
	OptimizacionSistema   *bool `json:"optimizacion_sistema,omitempty" bson:"optimizacion_sistema,omitempty"`

	// Corrective
	DiagnosticoProblema     string `json:"diagnostico_problema,omitempty" bson:"diagnostico_problema,omitempty"`
	SolucionAplicada        string `json:"solucion_aplicada,omitempty" bson:"solucion_aplicada,omitempty"`
	ComponentesReemplazados string `json:"componentes_reemplazados,omitempty" bson:"componentes_reemplazados,omitempty"`

	AnotacionesExtras    string    `json:"anotaciones_extras,omitempty" bson:"anotaciones_extras,omitempty"`
	CamposPersonalizados Fields    `json:"campos_personalizados" bson:"campos_personalizados"`
	CreadoEn             Timestamp `json:"creado_en" bson:"creado_en"`
}

// Servicio is a contracted service (hosting, licence, VPS) of an Empresa
type Servicio struct {
	ID                    ID        `json:"_id" bson:"_id"`
	EmpresaID             ID        `json:"empresa_id" bson:"empresa_id" binding:"required"`
	Tipo                  string    `json:"tipo" bson:"tipo" binding:"required"`
	Nombre                string    `json:"nombre" bson:"nombre" binding:"required"`
	Proveedor             string    `json:"proveedor" bson:"proveedor" binding:"required"`
	CostoMensual          float64   `json:"costo_mensual" bson:"costo_mensual" binding:"gte=0"`
	FechaInicio           Timestamp `json:"fecha_inicio" bson:"fecha_inicio"`
	FechaRenovacion       Timestamp `json:"fecha_renovacion" bson:"fecha_renovacion"`
	Activo                bool      `json:"activo" bson:"activo"`
	CredencialesEncrypted string    `json:"-" bson:"credenciales_encrypted,omitempty"`
	Credenciales          *string   `json:"credenciales,omitempty" bson:"-"`
	URLAcceso             string    `json:"url_acceso,omitempty" bson:"url_acceso,omitempty"`
	Notas                 string    `json:"notas,omitempty" bson:"notas,omitempty"`
	CamposPersonalizados  Fields    `json:"campos_personalizados" bson:"campos_personalizados"`
	CreadoEn              Timestamp `json:"creado_en" bson:"creado_en"`
	ActualizadoEn         Timestamp `json:"actualizado_en" bson:"actualizado_en"`
}

// HasCredenciales reports whether credentials are stored
func (s *Servicio) HasCredenciales() bool { return s.CredencialesEncrypted != "" }

// DefaultNombreSistema is the display name used until one is configured
const DefaultNombreSistema = "Sistema ITSM"

// Configuracion is the singleton deployment configuration
type Configuracion struct {
	ID                  ID                `json:"_id" bson:"_id"`
	NombreSistema       string            `json:"nombre_sistema" bson:"nombre_sistema"`
	LogoURL             string            `json:"logo_url,omitempty" bson:"logo_url,omitempty"`
	EmailNotificaciones string            `json:"email_notificaciones,omitempty" bson:"email_notificaciones,omitempty" binding:"omitempty,email"`
	CamposEquipos       []FieldDescriptor `json:"campos_equipos" bson:"campos_equipos"`
	CamposEmpresas      []FieldDescriptor `json:"campos_empresas" bson:"campos_empresas"`
	CamposBitacoras     []FieldDescriptor `json:"campos_bitacoras" bson:"campos_bitacoras"`
	CamposServicios     []FieldDescriptor `json:"campos_servicios" bson:"campos_servicios"`
	ActualizadoEn       Timestamp         `json:"actualizado_en" bson:"actualizado_en"`
}

// ConfiguracionID is the fixed key of the singleton configuration record
const ConfiguracionID ID = "00000000-0000-0000-0000-000000000001"

// NewConfiguracion returns the default configuration record
func NewConfiguracion() *Configuracion {
	return &Configuracion{
		ID:              ConfiguracionID,
		NombreSistema:   DefaultNombreSistema,
		CamposEquipos:   []FieldDescriptor{},
		CamposEmpresas:  []FieldDescriptor{},
		CamposBitacoras: []FieldDescriptor{},
		CamposServicios: []FieldDescriptor{},
		ActualizadoEn:   Now(),
	}
}

// Entities whose field descriptors can be configured
const (
	EntidadEquipos   = "equipos"
	EntidadEmpresas  = "empresas"
	EntidadBitacoras = "bitacoras"
	EntidadServicios = "servicios"
)

// Campos returns the descriptors configured for entidad
func (c *Configuracion) Campos(entidad string) ([]FieldDescriptor, bool) {
	switch entidad {
	case EntidadEquipos:
		return c.CamposEquipos, true
	case EntidadEmpresas:
		return c.CamposEmpresas, true
	case EntidadBitacoras:
		return c.CamposBitacoras, true
	case EntidadServicios:
		return c.CamposServicios, true
	}
	return nil, false
}

// SetCampos replaces the descriptors for entidad
func (c *Configuracion) SetCampos(entidad string, campos []FieldDescriptor) bool {
	if campos == nil {
		campos = []FieldDescriptor{}
	}
	switch entidad {
	case EntidadEquipos:
		c.CamposEquipos = campos
	case EntidadEmpresas:
		c.CamposEmpresas = campos
	case EntidadBitacoras:
		c.CamposBitacoras = campos
	case EntidadServicios:
		c.CamposServicios = campos
	default:
		return false
	}
	return true
}
