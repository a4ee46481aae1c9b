package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/tasks"
)

type fakeNotifier struct {
	mu          sync.Mutex
	ok          bool
	maintenance []string
	reports     []string
}

func (f *fakeNotifier) SendMaintenanceNotification(_ context.Context, to, equipo, fecha, tecnico string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maintenance = append(f.maintenance, to+"|"+equipo+"|"+fecha+"|"+tecnico)
	return f.ok
}

func (f *fakeNotifier) SendReportNotification(_ context.Context, to, empresa, tipo string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, to+"|"+empresa+"|"+tipo)
	return f.ok
}

func (f *fakeNotifier) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.maintenance), len(f.reports)
}

func TestRegisterNotifications(t *testing.T) {
	run := func(t *testing.T, n *fakeNotifier) *tasks.Queue {
		q := tasks.NewQueue(tasks.Options{Workers: 1, QueueSize: 4, MaxAttempts: 2, Backoff: time.Millisecond},
			nil, prometheus.NewRegistry(), zap.NewNop())
		RegisterNotifications(q, n)
		q.Start()

		q.Enqueue(tasks.KindMaintenanceNotification, map[string]string{"to": "ti@acme.mx", "equipo": "PC-01", "fecha": "01/02/2024 10:00", "tecnico": "Pedro"})
		q.Enqueue(tasks.KindReportNotification, map[string]string{"to": "ti@acme.mx", "empresa": "Acme", "tipo": TipoReporteEmpresa})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, q.Shutdown(ctx))
		return q
	}

	t.Run("Delivered", func(t *testing.T) {
		n := &fakeNotifier{ok: true}
		run(t, n)
		maintenance, reports := n.calls()
		assert.Equal(t, 1, maintenance)
		assert.Equal(t, 1, reports)
		assert.Equal(t, "ti@acme.mx|PC-01|01/02/2024 10:00|Pedro", n.maintenance[0])
		assert.Equal(t, "ti@acme.mx|Acme|Reporte de Empresa", n.reports[0])
	})

	t.Run("Failures are retried", func(t *testing.T) {
		n := &fakeNotifier{ok: false}
		run(t, n)
		maintenance, reports := n.calls()
		assert.Equal(t, 2, maintenance)
		assert.Equal(t, 2, reports)
	})
}
