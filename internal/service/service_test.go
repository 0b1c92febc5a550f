package service

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/psds-microservice/helpdesk-service/internal/model"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "helpdesk.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.Ticket{}, &model.TicketComment{}, &model.Asset{},
		&model.StockTransaction{}, &model.AssetAudit{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

type recordedEvent struct {
	Name    string
	Payload map[string]interface{}
}

// producerRecorder пишет события в память вместо Kafka.
type producerRecorder struct {
	events []recordedEvent
}

func (p *producerRecorder) Produce(_ context.Context, event string, payload map[string]interface{}) {
	p.events = append(p.events, recordedEvent{Name: event, Payload: payload})
}

func (p *producerRecorder) names() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

type recordedNotification struct {
	TicketID uint64
	Action   string
}

// notifierRecorder пишет уведомления в память вместо HTTP-вызова.
type notifierRecorder struct {
	calls []recordedNotification
}

func (n *notifierRecorder) NotifyTicketAsync(t *model.Ticket, action string) {
	n.calls = append(n.calls, recordedNotification{TicketID: t.ID, Action: action})
}

var (
	adminActor    = model.Actor{ID: 1, Role: model.RoleAdmin, FullName: "Alice Admin", Email: "alice@corp.test"}
	engineerActor = model.Actor{ID: 2, Role: model.RoleEngineer, FullName: "Evan Engineer", Email: "evan@corp.test"}
	reporterActor = model.Actor{ID: 3, Role: model.RoleReporter, FullName: "Rita Reporter", Email: "rita@client.test"}
)
