package database

import (
	"context"
	"testing"
	"time"

	"github.com/aleckzsalas-29/itsm2/internal/config"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a test database with migrations
func setupTestDB(t *testing.T) *Database {
	return setupTestDBWithDriver(t, "sqlite3")
}

func setupTestDBWithDriver(t *testing.T, driver string) *Database {
	dbPath := t.TempDir() + "/test.db"

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Type: "sqlite",
			SQLite: config.SQLiteConfig{
				Path:   dbPath,
				Driver: driver,
			},
		},
	}

	db, err := New(cfg)
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { db.Close() })

	err = db.Migrate(context.Background())
	require.NoError(t, err, "Failed to run migrations")

	return db
}

func newEmpresa(nombre string) *models.Empresa {
	now := models.Now()
	return &models.Empresa{
		ID:                   models.NewID(),
		Nombre:               nombre,
		Email:                "contacto@" + nombre + ".mx",
		Activo:               true,
		CreadoEn:             now,
		ActualizadoEn:        now,
		CamposPersonalizados: models.NewFields("sector", "retail", "sucursales", 3),
	}
}

func TestNew(t *testing.T) {
	t.Run("Create SQLite database successfully", func(t *testing.T) {
		cfg := &config.Config{
			Database: config.DatabaseConfig{
				Type:   "sqlite",
				SQLite: config.SQLiteConfig{Path: t.TempDir() + "/test.db"},
			},
		}

		db, err := New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, db)
		defer db.Close()
	})

	t.Run("Create with unsupported database type fails", func(t *testing.T) {
		cfg := &config.Config{
			Database: config.DatabaseConfig{Type: "unsupported"},
		}

		_, err := New(cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database type")
	})

	t.Run("Open rejects unknown type", func(t *testing.T) {
		_, err := Open(context.Background(), &config.Config{Database: config.DatabaseConfig{Type: "oracle"}})
		assert.Error(t, err)
	})
}

func TestMigrate(t *testing.T) {
	t.Run("Run migrations successfully", func(t *testing.T) {
		db := setupTestDB(t)

		var count int
		err := db.DB().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, 7)
	})

	t.Run("Run migrations multiple times (idempotent)", func(t *testing.T) {
		db := setupTestDB(t)
		assert.NoError(t, db.Migrate(context.Background()))
	})

	t.Run("Pure Go driver runs the same schema", func(t *testing.T) {
		db := setupTestDBWithDriver(t, "sqlite")
		require.NoError(t, db.Ping(context.Background()))
		require.NoError(t, db.CreateEmpresa(context.Background(), newEmpresa("acme")))
	})
}

func TestRebind(t *testing.T) {
	pg := &Database{dbType: "postgres"}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &Database{dbType: "sqlite"}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("-- comment\nCREATE TABLE a (\n  id TEXT\n);\n\nCREATE INDEX i ON a(id);\n")
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (\nid TEXT\n);", stmts[0])
}

func TestUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{
		ID:           models.NewID(),
		Email:        "tecnico@itsm.com",
		Nombre:       "Técnico",
		PasswordHash: "hash123",
		Rol:          models.RoleTecnico,
		Activo:       true,
		CreadoEn:     models.Now(),
	}

	t.Run("Create user successfully", func(t *testing.T) {
		require.NoError(t, db.CreateUser(ctx, user))
	})

	t.Run("Create duplicate email fails", func(t *testing.T) {
		dup := *user
		dup.ID = models.NewID()
		err := db.CreateUser(ctx, &dup)
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("Get user by email keeps the hash", func(t *testing.T) {
		got, err := db.GetUserByEmail(ctx, "tecnico@itsm.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "hash123", got.PasswordHash)
		assert.Equal(t, models.RoleTecnico, got.Rol)
	})

	t.Run("Get non-existent user fails", func(t *testing.T) {
		_, err := db.GetUser(ctx, models.NewID())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Update and count by role", func(t *testing.T) {
		user.Rol = models.RoleAdmin
		require.NoError(t, db.UpdateUser(ctx, user))

		n, err := db.CountUsersByRole(ctx, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		users, err := db.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("Delete user", func(t *testing.T) {
		require.NoError(t, db.DeleteUser(ctx, user.ID))
		assert.ErrorIs(t, db.DeleteUser(ctx, user.ID), ErrNotFound)
	})
}

func TestEmpresas(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("List when empty", func(t *testing.T) {
		empresas, err := db.ListEmpresas(ctx)
		require.NoError(t, err)
		assert.NotNil(t, empresas)
		assert.Empty(t, empresas)
	})

	e := newEmpresa("acme")
	require.NoError(t, db.CreateEmpresa(ctx, e))

	t.Run("Custom fields survive storage in order", func(t *testing.T) {
		got, err := db.GetEmpresa(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, "acme", got.Nombre)
		assert.Equal(t, []string{"sector", "sucursales"}, got.CamposPersonalizados.Keys())
	})

	t.Run("Update missing empresa fails", func(t *testing.T) {
		other := newEmpresa("ghost")
		assert.ErrorIs(t, db.UpdateEmpresa(ctx, other), ErrNotFound)
	})

	t.Run("Delete empresa", func(t *testing.T) {
		require.NoError(t, db.DeleteEmpresa(ctx, e.ID))
		_, err := db.GetEmpresa(ctx, e.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestEquipos(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	acme := newEmpresa("acme")
	globex := newEmpresa("globex")
	require.NoError(t, db.CreateEmpresa(ctx, acme))
	require.NoError(t, db.CreateEmpresa(ctx, globex))

	plain := "Secr3t!"
	eq := &models.Equipo{
		ID:                       models.NewID(),
		EmpresaID:                acme.ID,
		Nombre:                   "PC-01",
		Estado:                   models.EstadoActivo,
		PasswordWindowsEncrypted: "ciphertext",
		PasswordWindows:          &plain,
		CreadoEn:                 models.Now(),
		ActualizadoEn:            models.Now(),
	}
	require.NoError(t, db.CreateEquipo(ctx, eq))
	require.NoError(t, db.CreateEquipo(ctx, &models.Equipo{
		ID: models.NewID(), EmpresaID: globex.ID, Nombre: "SRV-01", Estado: models.EstadoActivo, CreadoEn: models.Now(),
	}))

	t.Run("Ciphertext is kept, plaintext is not", func(t *testing.T) {
		got, err := db.GetEquipo(ctx, eq.ID)
		require.NoError(t, err)
		assert.Equal(t, "ciphertext", got.PasswordWindowsEncrypted)
		assert.Nil(t, got.PasswordWindows)

		var data string
		require.NoError(t, db.DB().QueryRow("SELECT data FROM equipos WHERE id = ?", eq.ID).Scan(&data))
		assert.NotContains(t, data, plain)
	})

	t.Run("Filter by empresa", func(t *testing.T) {
		equipos, err := db.ListEquipos(ctx, EquipoFilter{EmpresaID: acme.ID})
		require.NoError(t, err)
		require.Len(t, equipos, 1)
		assert.Equal(t, "PC-01", equipos[0].Nombre)

		all, err := db.ListEquipos(ctx, EquipoFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("Update changes indexed columns", func(t *testing.T) {
		eq.Estado = models.EstadoMantenimiento
		eq.PasswordWindowsEncrypted = ""
		require.NoError(t, db.UpdateEquipo(ctx, eq))

		got, err := db.GetEquipo(ctx, eq.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EstadoMantenimiento, got.Estado)
		assert.False(t, got.HasPasswordWindows())
	})

	t.Run("Delete missing equipo fails", func(t *testing.T) {
		assert.ErrorIs(t, db.DeleteEquipo(ctx, models.NewID()), ErrNotFound)
	})
}

func TestBitacoras(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	empresaID := models.NewID()
	equipoID := models.NewID()
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	for i, desc := range []string{"vieja", "nueva", "media"} {
		offset := map[int]time.Duration{0: -48 * time.Hour, 1: 0, 2: -24 * time.Hour}[i]
		require.NoError(t, db.CreateBitacora(ctx, &models.Bitacora{
			ID:          models.NewID(),
			EquipoID:    equipoID,
			EmpresaID:   empresaID,
			TecnicoID:   models.NewID(),
			Tipo:        "Preventivo",
			Descripcion: desc,
			Fecha:       models.At(base.Add(offset)),
			Estado:      models.EstadoPendiente,
			CreadoEn:    models.Now(),
		}))
	}

	t.Run("Listed newest first", func(t *testing.T) {
		bitacoras, err := db.ListBitacoras(ctx, BitacoraFilter{EquipoID: equipoID})
		require.NoError(t, err)
		require.Len(t, bitacoras, 3)
		assert.Equal(t, "nueva", bitacoras[0].Descripcion)
		assert.Equal(t, "media", bitacoras[1].Descripcion)
		assert.Equal(t, "vieja", bitacoras[2].Descripcion)
	})

	t.Run("Date range filter", func(t *testing.T) {
		bitacoras, err := db.ListBitacoras(ctx, BitacoraFilter{
			EmpresaID: empresaID,
			Desde:     base.Add(-30 * time.Hour),
			Hasta:     base,
		})
		require.NoError(t, err)
		assert.Len(t, bitacoras, 2)
	})

	t.Run("Unknown equipo yields empty list", func(t *testing.T) {
		bitacoras, err := db.ListBitacoras(ctx, BitacoraFilter{EquipoID: models.NewID()})
		require.NoError(t, err)
		assert.Empty(t, bitacoras)
	})
}

func TestServicios(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	empresaID := models.NewID()

	activo := &models.Servicio{
		ID: models.NewID(), EmpresaID: empresaID, Nombre: "Hosting", Activo: true,
		CredencialesEncrypted: "cipher", CreadoEn: models.Now(),
	}
	inactivo := &models.Servicio{
		ID: models.NewID(), EmpresaID: empresaID, Nombre: "VPS", Activo: false, CreadoEn: models.Now(),
	}
	require.NoError(t, db.CreateServicio(ctx, activo))
	require.NoError(t, db.CreateServicio(ctx, inactivo))

	t.Run("Only active", func(t *testing.T) {
		servicios, err := db.ListServicios(ctx, ServicioFilter{EmpresaID: empresaID, SoloActivos: true})
		require.NoError(t, err)
		require.Len(t, servicios, 1)
		assert.Equal(t, "cipher", servicios[0].CredencialesEncrypted)
	})

	t.Run("Update toggles activo", func(t *testing.T) {
		inactivo.Activo = true
		require.NoError(t, db.UpdateServicio(ctx, inactivo))
		servicios, err := db.ListServicios(ctx, ServicioFilter{SoloActivos: true})
		require.NoError(t, err)
		assert.Len(t, servicios, 2)
	})
}

func TestDashboardCounters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("Empty store", func(t *testing.T) {
		n, err := db.CountEmpresas(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		equipos, err := db.CountEquiposByEstado(ctx)
		require.NoError(t, err)
		assert.Empty(t, equipos)

		totals, err := db.TotalServiciosActivos(ctx)
		require.NoError(t, err)
		assert.Equal(t, ServicioTotals{}, totals)
	})

	acme := newEmpresa("acme")
	require.NoError(t, db.CreateEmpresa(ctx, acme))
	require.NoError(t, db.CreateEmpresa(ctx, newEmpresa("globex")))
	for _, estado := range []string{models.EstadoActivo, models.EstadoActivo, models.EstadoMantenimiento} {
		require.NoError(t, db.CreateEquipo(ctx, &models.Equipo{
			ID: models.NewID(), EmpresaID: acme.ID, Nombre: "PC", Estado: estado, CreadoEn: models.Now(),
		}))
	}
	for _, estado := range []string{models.EstadoPendiente, models.EstadoCompletado} {
		require.NoError(t, db.CreateBitacora(ctx, &models.Bitacora{
			ID: models.NewID(), EquipoID: models.NewID(), EmpresaID: acme.ID, TecnicoID: models.NewID(),
			Estado: estado, Fecha: models.Now(), CreadoEn: models.Now(),
		}))
	}
	vps := &models.Servicio{ID: models.NewID(), EmpresaID: acme.ID, Nombre: "VPS", CostoMensual: 450.5, Activo: true, CreadoEn: models.Now()}
	require.NoError(t, db.CreateServicio(ctx, vps))
	require.NoError(t, db.CreateServicio(ctx, &models.Servicio{
		ID: models.NewID(), EmpresaID: acme.ID, Nombre: "Viejo", CostoMensual: 999, Activo: false, CreadoEn: models.Now(),
	}))

	t.Run("Counts by estado", func(t *testing.T) {
		n, err := db.CountEmpresas(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		equipos, err := db.CountEquiposByEstado(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{models.EstadoActivo: 2, models.EstadoMantenimiento: 1}, equipos)

		bitacoras, err := db.CountBitacorasByEstado(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{models.EstadoPendiente: 1, models.EstadoCompletado: 1}, bitacoras)
	})

	t.Run("Active servicio totals follow updates", func(t *testing.T) {
		totals, err := db.TotalServiciosActivos(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, totals.Count)
		assert.InDelta(t, 450.5, totals.CostoMensual, 0.001)

		vps.CostoMensual = 500
		require.NoError(t, db.UpdateServicio(ctx, vps))
		totals, err = db.TotalServiciosActivos(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 500, totals.CostoMensual, 0.001)
	})

	t.Run("Cost column is backfilled from stored records", func(t *testing.T) {
		_, err := db.DB().Exec(
			`INSERT INTO servicios (id, empresa_id, activo, credenciales_enc, data, creado_en) VALUES (?, ?, ?, ?, ?, ?)`,
			models.NewID(), acme.ID, true, "", `{"nombre": "Legado", "costo_mensual": 100}`, "2024-01-01T00:00:00Z",
		)
		require.NoError(t, err)
		require.NoError(t, db.Migrate(ctx))

		totals, err := db.TotalServiciosActivos(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, totals.Count)
		assert.InDelta(t, 600, totals.CostoMensual, 0.001)
	})
}

func TestConfiguracion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("Missing before first save", func(t *testing.T) {
		_, err := db.GetConfiguracion(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Save is an upsert", func(t *testing.T) {
		c := models.NewConfiguracion()
		require.NoError(t, db.SaveConfiguracion(ctx, c))

		c.NombreSistema = "Mesa de Ayuda"
		c.CamposEquipos = []models.FieldDescriptor{{Nombre: "rack", Tipo: models.FieldCheckbox}}
		require.NoError(t, db.SaveConfiguracion(ctx, c))

		got, err := db.GetConfiguracion(ctx)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
		assert.Equal(t, "Mesa de Ayuda", got.NombreSistema)
		assert.Len(t, got.CamposEquipos, 1)
	})
}

func TestSystemConfig(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.GetSystemConfig(ctx, "jwt_secret")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.SetSystemConfig(ctx, "jwt_secret", "one"))
	require.NoError(t, db.SetSystemConfig(ctx, "jwt_secret", "two"))

	value, err := db.GetSystemConfig(ctx, "jwt_secret")
	require.NoError(t, err)
	assert.Equal(t, "two", value)
}
