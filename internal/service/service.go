package service

import (
	"context"

	"github.com/psds-microservice/helpdesk-service/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventProducer — отправка доменных событий (best-effort, не влияет на результат мутации).
type EventProducer interface {
	Produce(ctx context.Context, event string, payload map[string]interface{})
}

// Notifier — внешний сервис уведомлений. Доставка асинхронная, сбой не откатывает мутацию.
type Notifier interface {
	NotifyTicketAsync(t *model.Ticket, action string)
}

// lockForUpdate вешает SELECT ... FOR UPDATE на строку агрегата.
// FOR UPDATE понимает только postgres; sqlite в тестах сериализует писателей сам.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
