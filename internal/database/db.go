// Package database provides connection management, migrations, and data
// access for the ITSM application on SQLite, PostgreSQL and MongoDB.
package database

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/aleckzsalas-29/itsm2/internal/config"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// sortable column format, fixed width so text ordering matches time ordering
const columnTimeLayout = "2006-01-02T15:04:05.000000Z"

// Database is the SQL implementation of Store
type Database struct {
	db     *sql.DB
	dbType string
}

var _ Store = (*Database)(nil)

// New creates a new SQL database connection
func New(cfg *config.Config) (*Database, error) {
	var db *sql.DB
	var err error

	switch cfg.Database.Type {
	case "sqlite":
		driver, dsn := sqliteDSN(cfg.Database.SQLite)
		db, err = sql.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		// SQLite only allows one writer at a time
		db.SetMaxOpenConns(1)
	case "postgres":
		driver := "postgres"
		if cfg.Database.Postgres.Driver == "pgx" {
			driver = "pgx"
		}
		db, err = sql.Open(driver, cfg.GetDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdleConns)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		db:     db,
		dbType: cfg.Database.Type,
	}, nil
}

func sqliteDSN(c config.SQLiteConfig) (driver, dsn string) {
	if c.Driver == "sqlite" {
		return "sqlite", "file:" + c.Path + "?_pragma=busy_timeout(5000)"
	}
	return "sqlite3", c.Path + "?_busy_timeout=5000"
}

// Ping checks the connection
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// DB returns the underlying database connection for direct queries
func (d *Database) DB() *sql.DB {
	return d.db
}

// Migrate runs database migrations
func (d *Database) Migrate(ctx context.Context) error {
	suffix := ".up.sql"
	if d.dbType == "postgres" {
		suffix = ".postgres.up.sql"
	}
	migrationFiles := []string{
		"migrations/000001_init_schema" + suffix,
		"migrations/000002_add_bitacora_indexes" + suffix,
		"migrations/000003_add_servicio_costo" + suffix,
	}

	for _, migrationFile := range migrationFiles {
		content, err := migrationsFS.ReadFile(migrationFile)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", migrationFile, err)
		}

		for _, stmt := range splitStatements(string(content)) {
			if _, err := d.db.ExecContext(ctx, stmt); err != nil {
				if !alreadyApplied(err) {
					return fmt.Errorf("migration %s failed: %w\nStatement: %s", migrationFile, err, stmt)
				}
			}
		}
	}

	return nil
}

// alreadyApplied reports errors from re-running an idempotent migration
func alreadyApplied(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column")
}

// splitStatements drops comment lines and splits on trailing semicolons
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "--") || line == "" {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(line, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}
	return statements
}

// rebind rewrites ? placeholders as $n for PostgreSQL
func (d *Database) rebind(query string) string {
	if d.dbType != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *Database) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, d.rebind(query), args...)
}

// execOne runs a write that must touch exactly one row
func (d *Database) execOne(ctx context.Context, query string, args ...any) error {
	res, err := d.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, d.rebind(query), args...)
}

func (d *Database) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, d.rebind(query), args...)
}

func columnTime(t models.Timestamp) string {
	return t.UTC().Format(columnTimeLayout)
}

func encodeData(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}
	return string(data), nil
}

func decodeData(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation recognizes unique constraint errors from every driver
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	// modernc.org/sqlite
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type scanner interface {
	Scan(dest ...any) error
}

// User operations

// CreateUser creates a new user. A taken email returns ErrDuplicate.
func (d *Database) CreateUser(ctx context.Context, u *models.User) error {
	data, err := encodeData(u)
	if err != nil {
		return err
	}
	_, err = d.exec(ctx,
		`INSERT INTO usuarios (id, email, rol, password_hash, data, creado_en) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Rol, u.PasswordHash, data, columnTime(u.CreadoEn),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func scanUser(s scanner) (*models.User, error) {
	var data, hash string
	if err := s.Scan(&data, &hash); err != nil {
		return nil, notFound(err)
	}
	var u models.User
	if err := decodeData(data, &u); err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	return &u, nil
}

// GetUser retrieves a user by ID
func (d *Database) GetUser(ctx context.Context, id models.ID) (*models.User, error) {
	return scanUser(d.queryRow(ctx, `SELECT data, password_hash FROM usuarios WHERE id = ?`, id))
}

// GetUserByEmail retrieves a user by email
func (d *Database) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(d.queryRow(ctx, `SELECT data, password_hash FROM usuarios WHERE email = ?`, email))
}

// ListUsers retrieves all users
func (d *Database) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := d.query(ctx, `SELECT data, password_hash FROM usuarios ORDER BY creado_en`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser replaces a user record
func (d *Database) UpdateUser(ctx context.Context, u *models.User) error {
	data, err := encodeData(u)
	if err != nil {
		return err
	}
	err = d.execOne(ctx,
		`UPDATE usuarios SET email = ?, rol = ?, password_hash = ?, data = ? WHERE id = ?`,
		u.Email, u.Rol, u.PasswordHash, data, u.ID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteUser deletes a user by ID
func (d *Database) DeleteUser(ctx context.Context, id models.ID) error {
	return d.execOne(ctx, `DELETE FROM usuarios WHERE id = ?`, id)
}

// CountUsersByRole counts users holding role
func (d *Database) CountUsersByRole(ctx context.Context, role models.Role) (int, error) {
	var count int
	err := d.queryRow(ctx, `SELECT COUNT(*) FROM usuarios WHERE rol = ?`, role).Scan(&count)
	return count, err
}

// Empresa operations

// CreateEmpresa creates a new empresa
func (d *Database) CreateEmpresa(ctx context.Context, e *models.Empresa) error {
	data, err := encodeData(e)
	if err != nil {
		return err
	}
	_, err = d.exec(ctx,
		`INSERT INTO empresas (id, nombre, data, creado_en) VALUES (?, ?, ?, ?)`,
		e.ID, e.Nombre, data, columnTime(e.CreadoEn),
	)
	return err
}

func scanEmpresa(s scanner) (*models.Empresa, error) {
	var data string
	if err := s.Scan(&data); err != nil {
		return nil, notFound(err)
	}
	var e models.Empresa
	if err := decodeData(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEmpresa retrieves an empresa by ID
func (d *Database) GetEmpresa(ctx context.Context, id models.ID) (*models.Empresa, error) {
	return scanEmpresa(d.queryRow(ctx, `SELECT data FROM empresas WHERE id = ?`, id))
}

// ListEmpresas retrieves all empresas
func (d *Database) ListEmpresas(ctx context.Context) ([]*models.Empresa, error) {
	rows, err := d.query(ctx, `SELECT data FROM empresas ORDER BY creado_en`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	empresas := []*models.Empresa{}
	for rows.Next() {
		e, err := scanEmpresa(rows)
		if err != nil {
			return nil, err
		}
		empresas = append(empresas, e)
	}
	return empresas, rows.Err()
}

// UpdateEmpresa replaces an empresa record
func (d *Database) UpdateEmpresa(ctx context.Context, e *models.Empresa) error {
	data, err := encodeData(e)
	if err != nil {
		return err
	}
	return d.execOne(ctx, `UPDATE empresas SET nombre = ?, data = ? WHERE id = ?`, e.Nombre, data, e.ID)
}

// DeleteEmpresa deletes an empresa by ID
func (d *Database) DeleteEmpresa(ctx context.Context, id models.ID) error {
	return d.execOne(ctx, `DELETE FROM empresas WHERE id = ?`, id)
}

// Equipo operations

func equipoData(e *models.Equipo) (string, error) {
	rec := *e
	rec.PasswordWindows = nil
	rec.PasswordCorreo = nil
	return encodeData(&rec)
}

// CreateEquipo creates a new equipo
func (d *Database) CreateEquipo(ctx context.Context, e *models.Equipo) error {
	data, err := equipoData(e)
	if err != nil {
		return err
	}
	_, err = d.exec(ctx,
		`INSERT INTO equipos (id, empresa_id, estado, password_windows_enc, password_correo_enc, data, creado_en)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.EmpresaID, e.Estado, e.PasswordWindowsEncrypted, e.PasswordCorreoEncrypted, data, columnTime(e.CreadoEn),
	)
	return err
}

func scanEquipo(s scanner) (*models.Equipo, error) {
	var data, pwWindows, pwCorreo string
	if err := s.Scan(&data, &pwWindows, &pwCorreo); err != nil {
		return nil, notFound(err)
	}
	var e models.Equipo
	if err := decodeData(data, &e); err != nil {
		return nil, err
	}
	e.PasswordWindowsEncrypted = pwWindows
	e.PasswordCorreoEncrypted = pwCorreo
	return &e, nil
}

// GetEquipo retrieves an equipo by ID
func (d *Database) GetEquipo(ctx context.Context, id models.ID) (*models.Equipo, error) {
	return scanEquipo(d.queryRow(ctx,
		`SELECT data, password_windows_enc, password_correo_enc FROM equipos WHERE id = ?`, id))
}

// ListEquipos retrieves equipos, optionally of one empresa
func (d *Database) ListEquipos(ctx context.Context, f EquipoFilter) ([]*models.Equipo, error) {
	query := `SELECT data, password_windows_enc, password_correo_enc FROM equipos`
	var args []any
	if f.EmpresaID != "" {
		query += ` WHERE empresa_id = ?`
		args = append(args, f.EmpresaID)
	}
	query += ` ORDER BY creado_en`

	rows, err := d.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	equipos := []*models.Equipo{}
	for rows.Next() {
		e, err := scanEquipo(rows)
		if err != nil {
			return nil, err
		}
		equipos = append(equipos, e)
	}
	return equipos, rows.Err()
}

// UpdateEquipo replaces an equipo record
func (d *Database) UpdateEquipo(ctx context.Context, e *models.Equipo) error {
	data, err := equipoData(e)
	if err != nil {
		return err
	}
	return d.execOne(ctx,
		`UPDATE equipos SET empresa_id = ?, estado = ?, password_windows_enc = ?, password_correo_enc = ?, data = ?
		 WHERE id = ?`,
		e.EmpresaID, e.Estado, e.PasswordWindowsEncrypted, e.PasswordCorreoEncrypted, data, e.ID,
	)
}

// DeleteEquipo deletes an equipo by ID
func (d *Database) DeleteEquipo(ctx context.Context, id models.ID) error {
	return d.execOne(ctx, `DELETE FROM equipos WHERE id = ?`, id)
}

// Bitácora operations

// CreateBitacora creates a new bitácora
func (d *Database) CreateBitacora(ctx context.Context, b *models.Bitacora) error {
	data, err := encodeData(b)
	if err != nil {
		return err
	}
	_, err = d.exec(ctx,
		`INSERT INTO bitacoras (id, equipo_id, empresa_id, tecnico_id, estado, fecha, data, creado_en)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.EquipoID, b.EmpresaID, b.TecnicoID, b.Estado, columnTime(b.Fecha), data, columnTime(b.CreadoEn),
	)
	return err
}

func scanBitacora(s scanner) (*models.Bitacora, error) {
	var data string
	if err := s.Scan(&data); err != nil {
		return nil, notFound(err)
	}
	var b models.Bitacora
	if err := decodeData(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBitacora retrieves a bitácora by ID
func (d *Database) GetBitacora(ctx context.Context, id models.ID) (*models.Bitacora, error) {
	return scanBitacora(d.queryRow(ctx, `SELECT data FROM bitacoras WHERE id = ?`, id))
}

// ListBitacoras retrieves bitácoras matching f, newest first
func (d *Database) ListBitacoras(ctx context.Context, f BitacoraFilter) ([]*models.Bitacora, error) {
	var where []string
	var args []any
	if f.EquipoID != "" {
		where = append(where, "equipo_id = ?")
		args = append(args, f.EquipoID)
	}
	if f.EmpresaID != "" {
		where = append(where, "empresa_id = ?")
		args = append(args, f.EmpresaID)
	}
	if !f.Desde.IsZero() {
		where = append(where, "fecha >= ?")
		args = append(args, columnTime(models.At(f.Desde)))
	}
	if !f.Hasta.IsZero() {
		where = append(where, "fecha <= ?")
		args = append(args, columnTime(models.At(f.Hasta)))
	}

	query := `SELECT data FROM bitacoras`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY fecha DESC, creado_en DESC`

	rows, err := d.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bitacoras := []*models.Bitacora{}
	for rows.Next() {
		b, err := scanBitacora(rows)
		if err != nil {
			return nil, err
		}
		bitacoras = append(bitacoras, b)
	}
	return bitacoras, rows.Err()
}

// UpdateBitacora replaces a bitácora record
func (d *Database) UpdateBitacora(ctx context.Context, b *models.Bitacora) error {
	data, err := encodeData(b)
	if err != nil {
		return err
	}
	return d.execOne(ctx,
		`UPDATE bitacoras SET equipo_id = ?, empresa_id = ?, tecnico_id = ?, estado = ?, fecha = ?, data = ?
		 WHERE id = ?`,
		b.EquipoID, b.EmpresaID, b.TecnicoID, b.Estado, columnTime(b.Fecha), data, b.ID,
	)
}

// DeleteBitacora deletes a bitácora by ID
func (d *Database) DeleteBitacora(ctx context.Context, id models.ID) error {
	return d.execOne(ctx, `DELETE FROM bitacoras WHERE id = ?`, id)
}

// Servicio operations

func servicioData(s *models.Servicio) (string, error) {
	rec := *s
	rec.Credenciales = nil
	return encodeData(&rec)
}

// CreateServicio creates a new servicio
func (d *Database) CreateServicio(ctx context.Context, s *models.Servicio) error {
	data, err := servicioData(s)
	if err != nil {
		return err
	}
	_, err = d.exec(ctx,
		`INSERT INTO servicios (id, empresa_id, activo, costo_mensual, credenciales_enc, data, creado_en) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.EmpresaID, s.Activo, s.CostoMensual, s.CredencialesEncrypted, data, columnTime(s.CreadoEn),
	)
	return err
}

func scanServicio(s scanner) (*models.Servicio, error) {
	var data, cred string
	if err := s.Scan(&data, &cred); err != nil {
		return nil, notFound(err)
	}
	var svc models.Servicio
	if err := decodeData(data, &svc); err != nil {
		return nil, err
	}
	svc.CredencialesEncrypted = cred
	return &svc, nil
}

// GetServicio retrieves a servicio by ID
func (d *Database) GetServicio(ctx context.Context, id models.ID) (*models.Servicio, error) {
	return scanServicio(d.queryRow(ctx, `SELECT data, credenciales_enc FROM servicios WHERE id = ?`, id))
}

// ListServicios retrieves servicios matching f
func (d *Database) ListServicios(ctx context.Context, f ServicioFilter) ([]*models.Servicio, error) {
	var where []string
	var args []any
	if f.EmpresaID != "" {
		where = append(where, "empresa_id = ?")
		args = append(args, f.EmpresaID)
	}
	if f.SoloActivos {
		where = append(where, "activo = ?")
		args = append(args, true)
	}

	query := `SELECT data, credenciales_enc FROM servicios`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY creado_en`

	rows, err := d.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	servicios := []*models.Servicio{}
	for rows.Next() {
		s, err := scanServicio(rows)
		if err != nil {
			return nil, err
		}
		servicios = append(servicios, s)
	}
	return servicios, rows.Err()
}

// UpdateServicio replaces a servicio record
func (d *Database) UpdateServicio(ctx context.Context, s *models.Servicio) error {
	data, err := servicioData(s)
	if err != nil {
		return err
	}
	return d.execOne(ctx,
		`UPDATE servicios SET empresa_id = ?, activo = ?, costo_mensual = ?, credenciales_enc = ?, data = ? WHERE id = ?`,
		s.EmpresaID, s.Activo, s.CostoMensual, s.CredencialesEncrypted, data, s.ID,
	)
}

// DeleteServicio deletes a servicio by ID
func (d *Database) DeleteServicio(ctx context.Context, id models.ID) error {
	return d.execOne(ctx, `DELETE FROM servicios WHERE id = ?`, id)
}

// Dashboard counters

// CountEmpresas counts all empresas
func (d *Database) CountEmpresas(ctx context.Context) (int, error) {
	var count int
	err := d.queryRow(ctx, `SELECT COUNT(*) FROM empresas`).Scan(&count)
	return count, err
}

// CountEquiposByEstado counts equipos per estado
func (d *Database) CountEquiposByEstado(ctx context.Context) (map[string]int, error) {
	return d.countByEstado(ctx, `SELECT estado, COUNT(*) FROM equipos GROUP BY estado`)
}

// CountBitacorasByEstado counts bitácoras per estado
func (d *Database) CountBitacorasByEstado(ctx context.Context) (map[string]int, error) {
	return d.countByEstado(ctx, `SELECT estado, COUNT(*) FROM bitacoras GROUP BY estado`)
}

func (d *Database) countByEstado(ctx context.Context, query string) (map[string]int, error) {
	rows, err := d.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var estado string
		var n int
		if err := rows.Scan(&estado, &n); err != nil {
			return nil, err
		}
		counts[estado] = n
	}
	return counts, rows.Err()
}

// TotalServiciosActivos counts active servicios and sums their monthly cost
func (d *Database) TotalServiciosActivos(ctx context.Context) (ServicioTotals, error) {
	var t ServicioTotals
	err := d.queryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(costo_mensual), 0) FROM servicios WHERE activo = ?`, true,
	).Scan(&t.Count, &t.CostoMensual)
	return t, err
}

// Configuración operations

// GetConfiguracion returns the singleton configuration, or ErrNotFound
// before the first save.
func (d *Database) GetConfiguracion(ctx context.Context) (*models.Configuracion, error) {
	var data string
	err := d.queryRow(ctx, `SELECT data FROM configuracion ORDER BY actualizado_en DESC LIMIT 1`).Scan(&data)
	if err != nil {
		return nil, notFound(err)
	}
	var c models.Configuracion
	if err := decodeData(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveConfiguracion inserts or replaces the configuration record
func (d *Database) SaveConfiguracion(ctx context.Context, c *models.Configuracion) error {
	data, err := encodeData(c)
	if err != nil {
		return err
	}
	_, err = d.exec(ctx,
		`INSERT INTO configuracion (id, data, actualizado_en) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET data = excluded.data, actualizado_en = excluded.actualizado_en`,
		c.ID, data, columnTime(c.ActualizadoEn),
	)
	return err
}

// System config operations

// SetSystemConfig sets a system configuration value
func (d *Database) SetSystemConfig(ctx context.Context, key, value string) error {
	_, err := d.exec(ctx,
		`INSERT INTO system_config (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(columnTimeLayout),
	)
	return err
}

// GetSystemConfig retrieves a system configuration value
func (d *Database) GetSystemConfig(ctx context.Context, key string) (string, error) {
	var value string
	if err := d.queryRow(ctx, `SELECT value FROM system_config WHERE key = ?`, key).Scan(&value); err != nil {
		return "", notFound(err)
	}
	return value, nil
}
