package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleckzsalas-29/itsm2/internal/crypto"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

func TestEquipoService_Disclosure(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	empresa := env.createEmpresa(t, "acme")
	equipo := env.createEquipo(t, empresa.ID, "PC-01", "Secr3t!")

	t.Run("Stored as ciphertext only", func(t *testing.T) {
		stored, err := env.store.GetEquipo(ctx, equipo.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, stored.PasswordWindowsEncrypted)
		assert.NotEqual(t, "Secr3t!", stored.PasswordWindowsEncrypted)
		assert.Empty(t, stored.PasswordCorreoEncrypted)
	})

	cases := []struct {
		name     string
		role     models.Role
		disclose bool
		want     bool
	}{
		{"Administrador with flag", models.RoleAdmin, true, true},
		{"Tecnico with flag", models.RoleTecnico, true, true},
		{"Cliente with flag", models.RoleCliente, true, false},
		{"Administrador without flag", models.RoleAdmin, false, false},
		{"Cliente without flag", models.RoleCliente, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := env.svc.Equipos.Get(ctx, equipo.ID, tc.disclose, tc.role)
			require.NoError(t, err)

			raw, err := json.Marshal(e)
			require.NoError(t, err)
			var fields map[string]any
			require.NoError(t, json.Unmarshal(raw, &fields))

			assert.NotContains(t, fields, "password_windows_encrypted")
			assert.NotContains(t, fields, "password_correo_encrypted")
			assert.NotContains(t, fields, "password_correo")
			if tc.want {
				assert.Equal(t, "Secr3t!", fields["password_windows"])
			} else {
				assert.NotContains(t, fields, "password_windows")
			}
		})
	}

	t.Run("List never carries credentials", func(t *testing.T) {
		for _, filter := range []models.ID{"", empresa.ID} {
			equipos, err := env.svc.Equipos.List(ctx, filter)
			require.NoError(t, err)
			require.Len(t, equipos, 1)

			raw, err := json.Marshal(equipos)
			require.NoError(t, err)
			assert.NotContains(t, string(raw), "password_windows")
			assert.NotContains(t, string(raw), "password_correo")
			assert.NotContains(t, string(raw), "Secr3t!")
		}
	})

	t.Run("Undecryptable value degrades to the sentinel", func(t *testing.T) {
		otherKey, err := crypto.GenerateMasterKey()
		require.NoError(t, err)
		otherVault, err := crypto.NewVault(otherKey)
		require.NoError(t, err)

		deps := env.deps
		deps.Vault = otherVault
		svc := New(deps)

		e, err := svc.Equipos.Get(ctx, equipo.ID, true, models.RoleAdmin)
		require.NoError(t, err)
		require.NotNil(t, e.PasswordWindows)
		assert.Equal(t, crypto.DecryptionFailed, *e.PasswordWindows)
	})
}

func TestEquipoService_Create(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	empresa := env.createEmpresa(t, "acme")

	t.Run("Defaults to Activo", func(t *testing.T) {
		e := env.createEquipo(t, empresa.ID, "PC-02", "")
		assert.Equal(t, models.EstadoActivo, e.Estado)
		assert.Nil(t, e.PasswordWindows)
		assert.False(t, e.HasPasswordWindows())
	})

	t.Run("Unknown empresa", func(t *testing.T) {
		_, err := env.svc.Equipos.Create(ctx, &models.Equipo{
			EmpresaID: models.NewID(), Nombre: "X", Tipo: "PC", Marca: "HP", Modelo: "M", NumeroSerie: "1", Ubicacion: "A",
		})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, "Empresa no encontrada")
	})

	t.Run("Missing required fields", func(t *testing.T) {
		_, err := env.svc.Equipos.Create(ctx, &models.Equipo{EmpresaID: empresa.ID, Nombre: "X"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Invalid estado", func(t *testing.T) {
		_, err := env.svc.Equipos.Create(ctx, &models.Equipo{
			EmpresaID: empresa.ID, Nombre: "X", Tipo: "PC", Marca: "HP", Modelo: "M", NumeroSerie: "1", Ubicacion: "A", Estado: "Roto",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Dynamic fields follow the configured schema", func(t *testing.T) {
		require.NoError(t, env.svc.Configuracion.SetCampos(ctx, models.EntidadEquipos, []models.FieldDescriptor{
			{Nombre: "garantia_extendida", Tipo: models.FieldCheckbox},
			{Nombre: "costo_licencia", Tipo: models.FieldNumero},
		}))

		e := &models.Equipo{
			EmpresaID: empresa.ID, Nombre: "PC-03", Tipo: "PC", Marca: "HP", Modelo: "M", NumeroSerie: "3", Ubicacion: "A",
			CamposDinamicos:      models.NewFields("garantia_extendida", "si", "costo_licencia", "120.5"),
			CamposPersonalizados: models.NewFields("libre", "cualquier cosa"),
		}
		_, err := env.svc.Equipos.Create(ctx, e)
		require.NoError(t, err)

		got, err := env.svc.Equipos.Get(ctx, e.ID, false, models.RoleAdmin)
		require.NoError(t, err)
		v, ok := got.CamposDinamicos.Get("garantia_extendida")
		require.True(t, ok)
		b, isBool := v.Bool()
		assert.True(t, isBool)
		assert.True(t, b)
		v, _ = got.CamposDinamicos.Get("costo_licencia")
		n, isNum := v.Number()
		assert.True(t, isNum)
		assert.Equal(t, 120.5, n)
		v, _ = got.CamposPersonalizados.Get("libre")
		assert.Equal(t, "cualquier cosa", v.String())

		_, err = env.svc.Equipos.Create(ctx, &models.Equipo{
			EmpresaID: empresa.ID, Nombre: "PC-04", Tipo: "PC", Marca: "HP", Modelo: "M", NumeroSerie: "4", Ubicacion: "A",
			CamposDinamicos: models.NewFields("desconocido", "x"),
		})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestEquipoService_Update(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	empresa := env.createEmpresa(t, "acme")
	equipo := env.createEquipo(t, empresa.ID, "PC-01", "Secr3t!")

	before, err := env.store.GetEquipo(ctx, equipo.ID)
	require.NoError(t, err)

	t.Run("Merge keeps untouched fields and credentials", func(t *testing.T) {
		body := `{"ubicacion": "Bodega", "password_windows": "", "password_windows_encrypted": "forged", "creado_en": "2000-01-01"}`
		require.NoError(t, env.svc.Equipos.Update(ctx, equipo.ID, []byte(body)))

		after, err := env.store.GetEquipo(ctx, equipo.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bodega", after.Ubicacion)
		assert.Equal(t, "Dell", after.Marca)
		assert.Equal(t, before.PasswordWindowsEncrypted, after.PasswordWindowsEncrypted)
		assert.Equal(t, before.CreadoEn.Unix(), after.CreadoEn.Unix())
		assert.True(t, !after.ActualizadoEn.Before(before.ActualizadoEn.Time))
	})

	t.Run("New password is re-encrypted", func(t *testing.T) {
		require.NoError(t, env.svc.Equipos.Update(ctx, equipo.ID, []byte(`{"password_windows": "Otra#1", "password_correo": "correo$2"}`)))

		e, err := env.svc.Equipos.Get(ctx, equipo.ID, true, models.RoleTecnico)
		require.NoError(t, err)
		require.NotNil(t, e.PasswordWindows)
		require.NotNil(t, e.PasswordCorreo)
		assert.Equal(t, "Otra#1", *e.PasswordWindows)
		assert.Equal(t, "correo$2", *e.PasswordCorreo)
	})

	t.Run("Invalid estado", func(t *testing.T) {
		err := env.svc.Equipos.Update(ctx, equipo.ID, []byte(`{"estado": "Perdido"}`))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Malformed empresa id", func(t *testing.T) {
		err := env.svc.Equipos.Update(ctx, equipo.ID, []byte(`{"empresa_id": "abc"}`))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Unknown equipo", func(t *testing.T) {
		err := env.svc.Equipos.Update(ctx, models.NewID(), []byte(`{}`))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, env.svc.Equipos.Delete(ctx, equipo.ID))
		assert.ErrorIs(t, env.svc.Equipos.Delete(ctx, equipo.ID), ErrNotFound)
	})
}
