package service

import (
	"context"
	"errors"

	"github.com/aleckzsalas-29/itsm2/internal/tasks"
)

// ErrNotificationFailed is returned by a notification task whose email was
// not delivered, so the queue retries it
var ErrNotificationFailed = errors.New("notification not delivered")

// Notifier sends the emails scheduled by bitácora creation and reports
type Notifier interface {
	SendMaintenanceNotification(ctx context.Context, to, equipo, fecha, tecnico string) bool
	SendReportNotification(ctx context.Context, to, empresa, tipo string) bool
}

// RegisterNotifications binds the notification task kinds to n
func RegisterNotifications(q *tasks.Queue, n Notifier) {
	q.Register(tasks.KindMaintenanceNotification, func(ctx context.Context, p map[string]string) error {
		if !n.SendMaintenanceNotification(ctx, p["to"], p["equipo"], p["fecha"], p["tecnico"]) {
			return ErrNotificationFailed
		}
		return nil
	})
	q.Register(tasks.KindReportNotification, func(ctx context.Context, p map[string]string) error {
		if !n.SendReportNotification(ctx, p["to"], p["empresa"], p["tipo"]) {
			return ErrNotificationFailed
		}
		return nil
	})
}
