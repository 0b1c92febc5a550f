package service

import (
	"context"
	"errors"
	"time"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/rbac"
	"gorm.io/gorm"
)

// transitions — явная таблица допустимых переходов статуса для не-админов:
// прямая цепочка open -> in_progress -> resolved -> closed, досрочное закрытие
// из любого статуса и переоткрытие в open/in_progress. Админ не ограничен.
var transitions = map[model.TicketStatus]map[model.TicketStatus]bool{
	model.TicketStatusOpen:       {model.TicketStatusInProgress: true, model.TicketStatusResolved: true, model.TicketStatusClosed: true},
	model.TicketStatusInProgress: {model.TicketStatusOpen: true, model.TicketStatusResolved: true, model.TicketStatusClosed: true},
	model.TicketStatusResolved:   {model.TicketStatusOpen: true, model.TicketStatusInProgress: true, model.TicketStatusClosed: true},
	model.TicketStatusClosed:     {model.TicketStatusOpen: true, model.TicketStatusInProgress: true},
}

// CanTransition проверяет переход статуса по таблице (роль, откуда, куда).
func CanTransition(role model.Role, from, to model.TicketStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	if role == model.RoleAdmin {
		return true
	}
	return transitions[from][to]
}

type TicketService struct {
	db       *gorm.DB
	producer EventProducer
	notifier Notifier
}

func NewTicketService(db *gorm.DB, producer EventProducer, notifier Notifier) *TicketService {
	return &TicketService{db: db, producer: producer, notifier: notifier}
}

type CreateTicketInput struct {
	Subject          string
	Description      string
	Priority         model.TicketPriority
	AssignedEngineer string
	ReporterName     string
	ReporterEmail    string
	CompanyName      string
	CustomDate       *time.Time
}

func (s *TicketService) Create(ctx context.Context, actor model.Actor, in CreateTicketInput) (*model.Ticket, error) {
	if err := rbac.Authorize(actor.Role, rbac.ActionTicketCreate, rbac.Facts{}); err != nil {
		return nil, err
	}
	t := &model.Ticket{
		Subject:          in.Subject,
		Description:      in.Description,
		Status:           model.TicketStatusOpen,
		Priority:         in.Priority,
		AssignedEngineer: in.AssignedEngineer,
		ReporterName:     in.ReporterName,
		ReporterEmail:    in.ReporterEmail,
		CompanyName:      in.CompanyName,
		CustomDate:       in.CustomDate,
	}
	if t.Priority == "" {
		t.Priority = model.TicketPriorityMedium
	}
	// Репортёр заводит тикеты только от своего имени.
	if actor.Role == model.RoleReporter {
		t.ReporterName = actor.FullName
		t.ReporterEmail = actor.Email
		t.AssignedEngineer = ""
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	s.producer.Produce(ctx, "ticket.created", ticketEventPayload(t))
	return t, nil
}

func (s *TicketService) GetByID(ctx context.Context, actor model.Actor, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	if err := rbac.Authorize(actor.Role, rbac.ActionTicketRead, ticketFacts(actor, &t)); err != nil {
		// Репортёр не должен узнать о существовании чужого тикета.
		if actor.Role == model.RoleReporter {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// TicketFilter — необязательные условия списка.
type TicketFilter struct {
	Status           string
	Priority         string
	AssignedEngineer string
	ReporterEmail    string
	CompanyName      string
}

// List возвращает тикеты в зоне видимости актора: админ — все, инженер — назначенные
// ему, репортёр — свои.
func (s *TicketService) List(ctx context.Context, actor model.Actor, f TicketFilter, limit, offset int) ([]model.Ticket, int64, error) {
	tx := s.db.WithContext(ctx).Model(&model.Ticket{})
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleEngineer:
		tx = tx.Where("assigned_engineer = ?", actor.FullName)
	case model.RoleReporter:
		tx = tx.Where("reporter_email = ?", actor.Email)
	default:
		return nil, 0, errs.PermissionDenied("unknown role")
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		tx = tx.Where("priority = ?", f.Priority)
	}
	if f.AssignedEngineer != "" {
		tx = tx.Where("assigned_engineer = ?", f.AssignedEngineer)
	}
	if f.ReporterEmail != "" {
		tx = tx.Where("reporter_email = ?", f.ReporterEmail)
	}
	if f.CompanyName != "" {
		tx = tx.Where("company_name = ?", f.CompanyName)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	var items []model.Ticket
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateTicketInput — частичное обновление: nil-поля не трогаются.
type UpdateTicketInput struct {
	Subject          *string
	Description      *string
	Status           *model.TicketStatus
	Priority         *model.TicketPriority
	AssignedEngineer *string
	ReporterName     *string
	ReporterEmail    *string
	CompanyName      *string
	Resolution       *string
	CustomDate       *time.Time
}

func (in UpdateTicketInput) hasNonStatusFields() bool {
	return in.Subject != nil || in.Description != nil || in.Priority != nil ||
		in.AssignedEngineer != nil || in.ReporterName != nil || in.ReporterEmail != nil ||
		in.CompanyName != nil || in.Resolution != nil || in.CustomDate != nil
}

// Update применяет частичное обновление в одной транзакции над строкой тикета.
// Инженеру разрешено менять только статус своего тикета; resolved_at выставляется
// при входе в resolved/closed и не очищается при переоткрытии.
func (s *TicketService) Update(ctx context.Context, actor model.Actor, id uint64, in UpdateTicketInput) (*model.Ticket, error) {
	return s.update(ctx, actor, id, in, "")
}

func (s *TicketService) update(ctx context.Context, actor model.Actor, id uint64, in UpdateTicketInput, closeResolution string) (*model.Ticket, error) {
	var t model.Ticket
	statusChanged := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&t, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrTicketNotFound
			}
			return err
		}
		facts := ticketFacts(actor, &t)
		if actor.Role == model.RoleReporter && !facts.TicketReportedByActor {
			return errs.ErrTicketNotFound
		}
		if in.hasNonStatusFields() {
			if err := rbac.Authorize(actor.Role, rbac.ActionTicketUpdate, facts); err != nil {
				return err
			}
		}
		changes := map[string]interface{}{}
		if closeResolution != "" {
			// Текст решения — часть операции закрытия: инженеру разрешён на своём
			// тикете и пишется в той же транзакции, что и смена статуса.
			if err := rbac.Authorize(actor.Role, rbac.ActionTicketClose, facts); err != nil {
				return err
			}
			changes["resolution"] = closeResolution
		}
		if in.Status != nil && *in.Status != t.Status {
			if err := rbac.Authorize(actor.Role, rbac.ActionTicketUpdateStatus, facts); err != nil {
				return err
			}
			if !CanTransition(actor.Role, t.Status, *in.Status) {
				return errs.ErrInvalidTransition
			}
			changes["status"] = *in.Status
			if in.Status.Terminal() && t.ResolvedAt == nil {
				changes["resolved_at"] = time.Now()
			}
			statusChanged = true
		}
		if in.Subject != nil {
			changes["subject"] = *in.Subject
		}
		if in.Description != nil {
			changes["description"] = *in.Description
		}
		if in.Priority != nil {
			changes["priority"] = *in.Priority
		}
		if in.AssignedEngineer != nil {
			changes["assigned_engineer"] = *in.AssignedEngineer
		}
		if in.ReporterName != nil {
			changes["reporter_name"] = *in.ReporterName
		}
		if in.ReporterEmail != nil {
			changes["reporter_email"] = *in.ReporterEmail
		}
		if in.CompanyName != nil {
			changes["company_name"] = *in.CompanyName
		}
		if in.Resolution != nil {
			changes["resolution"] = *in.Resolution
		}
		if in.CustomDate != nil {
			changes["custom_date"] = *in.CustomDate
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&model.Ticket{}).Where("id = ?", t.ID).Updates(changes).Error; err != nil {
			return err
		}
		return tx.First(&t, t.ID).Error
	})
	if err != nil {
		return nil, err
	}
	if statusChanged {
		s.producer.Produce(ctx, "ticket.updated", ticketEventPayload(&t))
		if t.ReporterEmail != "" {
			s.notifier.NotifyTicketAsync(&t, "status_changed")
		}
	}
	return &t, nil
}

// Close — перевод в closed плюс необязательный текст решения (пишется в сам тикет).
// Статус и решение уходят одной транзакцией: частично закрытого тикета не бывает.
func (s *TicketService) Close(ctx context.Context, actor model.Actor, id uint64, resolution string) (*model.Ticket, error) {
	status := model.TicketStatusClosed
	return s.update(ctx, actor, id, UpdateTicketInput{Status: &status}, resolution)
}

func (s *TicketService) Delete(ctx context.Context, actor model.Actor, id uint64) error {
	if err := rbac.Authorize(actor.Role, rbac.ActionTicketDelete, rbac.Facts{}); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.Ticket
		if err := tx.First(&t, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrTicketNotFound
			}
			return err
		}
		if err := tx.Where("ticket_id = ?", id).Delete(&model.TicketComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Ticket{}, id).Error
	})
}

func ticketFacts(actor model.Actor, t *model.Ticket) rbac.Facts {
	return rbac.Facts{
		TicketAssignedToActor: t.AssignedEngineer != "" && t.AssignedEngineer == actor.FullName,
		TicketReportedByActor: t.ReporterEmail != "" && t.ReporterEmail == actor.Email,
	}
}

func ticketEventPayload(t *model.Ticket) map[string]interface{} {
	return map[string]interface{}{
		"ticket_id":      t.ID,
		"subject":        t.Subject,
		"status":         string(t.Status),
		"priority":       string(t.Priority),
		"reporter_email": t.ReporterEmail,
	}
}
