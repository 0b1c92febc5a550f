package service

import (
	"context"
	"errors"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/rbac"
	"gorm.io/gorm"
)

type CreateCommentInput struct {
	Body       string
	IsInternal bool
}

// AddComment добавляет комментарий к тикету от имени актора.
// Репортёру служебные комментарии (is_internal) запрещены.
func (s *TicketService) AddComment(ctx context.Context, actor model.Actor, ticketID uint64, in CreateCommentInput) (*model.TicketComment, error) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	facts := ticketFacts(actor, &t)
	facts.CommentInternal = in.IsInternal
	if actor.Role == model.RoleReporter && !facts.TicketReportedByActor {
		return nil, errs.ErrTicketNotFound
	}
	if err := rbac.Authorize(actor.Role, rbac.ActionCommentCreate, facts); err != nil {
		return nil, err
	}
	c := &model.TicketComment{
		TicketID:    ticketID,
		AuthorName:  actor.FullName,
		AuthorEmail: actor.Email,
		Body:        in.Body,
		IsInternal:  in.IsInternal,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments возвращает комментарии тикета; служебные отфильтровываются,
// если актору не положено их видеть.
func (s *TicketService) ListComments(ctx context.Context, actor model.Actor, ticketID uint64) ([]model.TicketComment, error) {
	t, err := s.GetByID(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx).Where("ticket_id = ?", t.ID)
	if rbac.Authorize(actor.Role, rbac.ActionCommentReadInternal, ticketFacts(actor, t)) != nil {
		tx = tx.Where("is_internal = ?", false)
	}
	var items []model.TicketComment
	if err := tx.Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *TicketService) UpdateComment(ctx context.Context, actor model.Actor, commentID uint64, body string) (*model.TicketComment, error) {
	var c model.TicketComment
	if err := s.db.WithContext(ctx).First(&c, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrCommentNotFound
		}
		return nil, err
	}
	if err := rbac.Authorize(actor.Role, rbac.ActionCommentUpdate, commentFacts(actor, &c)); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&c).Update("body", body).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *TicketService) DeleteComment(ctx context.Context, actor model.Actor, commentID uint64) error {
	var c model.TicketComment
	if err := s.db.WithContext(ctx).First(&c, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrCommentNotFound
		}
		return err
	}
	if err := rbac.Authorize(actor.Role, rbac.ActionCommentDelete, commentFacts(actor, &c)); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&c).Error
}

func commentFacts(actor model.Actor, c *model.TicketComment) rbac.Facts {
	return rbac.Facts{
		CommentAuthoredByActor: c.AuthorEmail != "" && c.AuthorEmail == actor.Email,
		CommentInternal:        c.IsInternal,
	}
}
