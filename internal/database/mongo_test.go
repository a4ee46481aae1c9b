package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/aleckzsalas-29/itsm2/internal/config"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMongoErr(t *testing.T) {
	assert.NoError(t, mongoErr(nil))
	assert.ErrorIs(t, mongoErr(mongo.ErrNoDocuments), ErrNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, mongoErr(dup), ErrDuplicate)

	other := errors.New("boom")
	assert.Equal(t, other, mongoErr(other))
}

// Runs against a live server when ITSM_TEST_MONGO_URI is set
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("ITSM_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ITSM_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	cfg := config.Default()
	cfg.Database.Type = "mongo"
	cfg.Database.Mongo.URI = uri
	cfg.Database.Mongo.Database = "itsm_test_" + time.Now().Format("20060102150405")

	store, err := NewMongo(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		store.Close()
	})
	require.NoError(t, store.Migrate(ctx))

	t.Run("Duplicate email", func(t *testing.T) {
		u := &models.User{ID: models.NewID(), Email: "a@itsm.com", Rol: models.RoleCliente, CreadoEn: models.Now()}
		require.NoError(t, store.CreateUser(ctx, u))
		u2 := *u
		u2.ID = models.NewID()
		assert.ErrorIs(t, store.CreateUser(ctx, &u2), ErrDuplicate)
	})

	t.Run("Bitácoras newest first", func(t *testing.T) {
		equipoID := models.NewID()
		base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
		for i, desc := range []string{"vieja", "nueva"} {
			require.NoError(t, store.CreateBitacora(ctx, &models.Bitacora{
				ID: models.NewID(), EquipoID: equipoID, Descripcion: desc,
				Fecha: models.At(base.Add(time.Duration(i) * time.Hour)), CreadoEn: models.Now(),
			}))
		}
		list, err := store.ListBitacoras(ctx, BitacoraFilter{EquipoID: equipoID})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "nueva", list[0].Descripcion)
	})

	t.Run("Dashboard counters", func(t *testing.T) {
		empresaID := models.NewID()
		for _, estado := range []string{models.EstadoActivo, models.EstadoInactivo} {
			require.NoError(t, store.CreateEquipo(ctx, &models.Equipo{
				ID: models.NewID(), EmpresaID: empresaID, Estado: estado, CreadoEn: models.Now(),
			}))
		}
		require.NoError(t, store.CreateServicio(ctx, &models.Servicio{
			ID: models.NewID(), EmpresaID: empresaID, CostoMensual: 120.5, Activo: true, CreadoEn: models.Now(),
		}))
		require.NoError(t, store.CreateServicio(ctx, &models.Servicio{
			ID: models.NewID(), EmpresaID: empresaID, CostoMensual: 80, Activo: false, CreadoEn: models.Now(),
		}))

		equipos, err := store.CountEquiposByEstado(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{models.EstadoActivo: 1, models.EstadoInactivo: 1}, equipos)

		totals, err := store.TotalServiciosActivos(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, totals.Count)
		assert.InDelta(t, 120.5, totals.CostoMensual, 0.001)
	})

	t.Run("System config upsert", func(t *testing.T) {
		require.NoError(t, store.SetSystemConfig(ctx, "k", "v1"))
		require.NoError(t, store.SetSystemConfig(ctx, "k", "v2"))
		v, err := store.GetSystemConfig(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v2", v)
	})
}
