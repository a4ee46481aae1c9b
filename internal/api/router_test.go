package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aleckzsalas-29/itsm2/internal/api"
	"github.com/aleckzsalas-29/itsm2/internal/auth"
	"github.com/aleckzsalas-29/itsm2/internal/config"
	"github.com/aleckzsalas-29/itsm2/internal/crypto"
	"github.com/aleckzsalas-29/itsm2/internal/database"
	"github.com/aleckzsalas-29/itsm2/internal/report"
	"github.com/aleckzsalas-29/itsm2/internal/service"
	"github.com/aleckzsalas-29/itsm2/internal/tasks"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type sentMail struct {
	to, subject string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *recordingNotifier) SendMaintenanceNotification(_ context.Context, to, equipo, _, _ string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{to: to, subject: "mantenimiento " + equipo})
	return true
}

func (n *recordingNotifier) SendReportNotification(_ context.Context, to, empresa, _ string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{to: to, subject: "reporte " + empresa})
	return true
}

func (n *recordingNotifier) all() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}

// testEnvironment holds a router wired to real services on SQLite
type testEnvironment struct {
	router   *gin.Engine
	queue    *tasks.Queue
	notifier *recordingNotifier
}

func setupTestEnvironment(t *testing.T) *testEnvironment {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Database.SQLite.Path = filepath.Join(dir, "test.db")
	cfg.JWT.Secret = "test-secret-key-for-testing-only-12345"
	cfg.JWT.Issuer = "itsm-test"
	cfg.Reports.OutputDir = filepath.Join(dir, "reportes")
	cfg.Security.CORSEnabled = false

	store, err := database.New(cfg)
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	key, err := crypto.GenerateMasterKey()
	require.NoError(t, err)
	vault, err := crypto.NewVault(key)
	require.NoError(t, err)
	compiler, err := report.NewCompiler(cfg.Reports.OutputDir, cfg.Reports.DefaultTemplate, zap.NewNop())
	require.NoError(t, err)

	journal, err := tasks.OpenBoltJournal(filepath.Join(dir, "tareas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	registry := prometheus.NewRegistry()
	queue := tasks.NewQueue(tasks.Options{Workers: 1, QueueSize: 16, MaxAttempts: 1}, journal, registry, zap.NewNop())
	notifier := &recordingNotifier{}
	service.RegisterNotifications(queue, notifier)
	queue.Start()

	services := service.New(service.Deps{
		Store:   store,
		Vault:   vault,
		Tasks:   queue,
		Reports: compiler,
		Config:  cfg,
		Logger:  zap.NewNop(),
	})
	_, err = services.Users.EnsureAdmin(context.Background())
	require.NoError(t, err)

	router, err := api.NewRouter(api.Options{
		Config:   cfg,
		Services: services,
		Store:    store,
		Tasks:    queue,
		Registry: registry,
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)
	gin.SetMode(gin.TestMode)

	return &testEnvironment{router: router, queue: queue, notifier: notifier}
}

func (env *testEnvironment) drain(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.queue.Shutdown(ctx))
}

func (env *testEnvironment) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (env *testEnvironment) login(t *testing.T, email, password string) string {
	w := env.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	decode(t, w, &res)
	require.NotEmpty(t, res.Token)
	return res.Token
}

func (env *testEnvironment) create(t *testing.T, path, token string, body any) string {
	w := env.do(http.MethodPost, path, token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		ID string `json:"id"`
	}
	decode(t, w, &res)
	require.NotEmpty(t, res.ID)
	return res.ID
}

func TestEndToEnd(t *testing.T) {
	env := setupTestEnvironment(t)
	admin := env.login(t, config.DefaultAdminEmail, config.DefaultAdminPassword)

	env.create(t, "/api/usuarios", admin, gin.H{
		"email": "tecnico@itsm.com", "nombre": "Pedro Técnico", "password": "password123", "rol": "tecnico",
	})
	env.create(t, "/api/usuarios", admin, gin.H{
		"email": "cliente@itsm.com", "nombre": "Clara Cliente", "password": "password123", "rol": "cliente",
	})
	tecnico := env.login(t, "tecnico@itsm.com", "password123")
	cliente := env.login(t, "cliente@itsm.com", "password123")

	empresaID := env.create(t, "/api/empresas", tecnico, gin.H{
		"nombre": "Acme", "direccion": "Av. Reforma 1", "telefono": "5551234567",
		"email": "ti@acme.mx", "contacto": "Laura",
	})
	equipoID := env.create(t, "/api/equipos", tecnico, gin.H{
		"empresa_id": empresaID, "nombre": "PC-01", "tipo": "Laptop", "marca": "Dell",
		"modelo": "Latitude", "numero_serie": "SN1", "ubicacion": "Recepción",
		"password_windows": "Secr3t!",
	})

	t.Run("Current user", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/auth/me", tecnico, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var me map[string]any
		decode(t, w, &me)
		assert.Equal(t, "tecnico@itsm.com", me["email"])
		assert.NotContains(t, me, "password_hash")
	})

	t.Run("Credential disclosure follows role", func(t *testing.T) {
		var got map[string]any
		w := env.do(http.MethodGet, "/api/equipos/"+equipoID+"?show_passwords=true", tecnico, nil)
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &got)
		assert.Equal(t, "Secr3t!", got["password_windows"])

		got = nil
		w = env.do(http.MethodGet, "/api/equipos/"+equipoID+"?show_passwords=true", cliente, nil)
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &got)
		assert.NotContains(t, got, "password_windows")

		w = env.do(http.MethodGet, "/api/equipos?empresa_id="+empresaID, admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "Secr3t!")
		assert.NotContains(t, w.Body.String(), "encrypted")
	})

	t.Run("Bitácora schedules one email and exports as CSV", func(t *testing.T) {
		env.create(t, "/api/bitacoras", tecnico, gin.H{
			"equipo_id": equipoID, "empresa_id": empresaID, "tipo": "Preventivo",
			"descripcion": "Limpieza general", "observaciones": "Sin novedad",
		})

		w := env.do(http.MethodGet, "/api/bitacoras/exportar?empresa_id="+empresaID+"&periodo=semana", tecnico, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "attachment; filename=bitacoras_"+empresaID+"_semana.csv", w.Header().Get("Content-Disposition"))
		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, strings.Join(report.CSVHeader, ","), lines[0])
		assert.Contains(t, lines[1], "PC-01")
		assert.Contains(t, lines[1], "Pedro Técnico")

		w = env.do(http.MethodGet, "/api/bitacoras/exportar", tecnico, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.do(http.MethodGet, "/api/bitacoras/exportar?empresa_id="+empresaID+"&periodo="+url.QueryEscape("x; filename=evil.exe"), tecnico, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
		require.NoError(t, err)
		assert.Equal(t, "attachment", disposition)
		assert.Equal(t, map[string]string{"filename": "bitacoras_" + empresaID + "_otro.csv"}, params)
	})

	t.Run("Empresa report is generated and downloadable", func(t *testing.T) {
		env.create(t, "/api/servicios", admin, gin.H{
			"empresa_id": empresaID, "tipo": "Hosting", "nombre": "VPS", "proveedor": "Linode",
			"costo_mensual": 450, "fecha_inicio": "2024-01-01", "fecha_renovacion": "2025-01-01",
		})

		w := env.do(http.MethodGet, "/api/reportes/empresa/"+empresaID+"?plantilla=compacto", cliente, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res map[string]string
		decode(t, w, &res)
		assert.Equal(t, "Reporte generado exitosamente", res["message"])

		w = env.do(http.MethodGet, "/api/reportes/download/"+res["filename"], cliente, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

		w = env.do(http.MethodGet, "/api/reportes/download/empresa_"+empresaID+"_20000101_000000.pdf", cliente, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Reporte no encontrado")

		w = env.do(http.MethodGet, "/api/reportes/download/secreto.txt", cliente, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Statistics", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/estadisticas", cliente, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var st map[string]any
		decode(t, w, &st)
		assert.Equal(t, 1.0, st["total_empresas"])
		assert.Equal(t, 1.0, st["equipos_activos"])
		assert.Equal(t, 450.0, st["costo_total_servicios"])
	})

	t.Run("Policy table", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/usuarios", cliente, nil).Code)
		assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, "/api/empresas/"+empresaID, tecnico, nil).Code)
		assert.Equal(t, http.StatusForbidden, env.do(http.MethodPut, "/api/configuracion", tecnico, gin.H{}).Code)
		assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/tareas/fallidas", tecnico, nil).Code)
		assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/empresas", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/empresas", "garbage", nil).Code)
		assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/configuracion/publica", "", nil).Code)
	})

	t.Run("Error mapping", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/empresas/no-es-un-id", admin, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.do(http.MethodGet, "/api/empresas/00000000-0000-4000-8000-000000000000", admin, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Empresa no encontrada")

		w = env.do(http.MethodPost, "/api/usuarios", admin, gin.H{
			"email": "tecnico@itsm.com", "nombre": "Otro", "password": "password123", "rol": "cliente",
		})
		assert.Equal(t, http.StatusConflict, w.Code)

		w = env.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "tecnico@itsm.com", "password": "mala"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Credenciales inválidas")

		w = env.do(http.MethodPut, "/api/configuracion/campos/facturas", admin, []gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Merge update", func(t *testing.T) {
		w := env.do(http.MethodPut, "/api/empresas/"+empresaID, tecnico, `{"telefono": "5550000000"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Empresa actualizada")

		w = env.do(http.MethodGet, "/api/empresas/"+empresaID, tecnico, nil)
		var got map[string]any
		decode(t, w, &got)
		assert.Equal(t, "5550000000", got["telefono"])
		assert.Equal(t, "Acme", got["nombre"])
	})

	t.Run("Operational endpoints", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/healthz", "", nil).Code)

		w := env.do(http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "itsm_http_requests_total")

		w = env.do(http.MethodGet, "/api/tareas/fallidas", admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})

	env.drain(t)
	sent := env.notifier.all()
	require.Len(t, sent, 2)
	assert.ElementsMatch(t, []sentMail{
		{to: "ti@acme.mx", subject: "mantenimiento PC-01"},
		{to: "ti@acme.mx", subject: "reporte Acme"},
	}, sent)
}
