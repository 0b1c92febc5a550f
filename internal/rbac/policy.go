// Package rbac — единая таблица прав доступа. Все сервисы спрашивают её
// и нигде не сравнивают роли самостоятельно.
package rbac

import (
	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

type Action string

const (
	ActionTicketCreate       Action = "ticket.create"
	ActionTicketRead         Action = "ticket.read"
	ActionTicketUpdate       Action = "ticket.update"        // любые поля, кроме статуса
	ActionTicketUpdateStatus Action = "ticket.update_status" // только поле status
	ActionTicketClose        Action = "ticket.close"
	ActionTicketDelete       Action = "ticket.delete"

	ActionCommentCreate       Action = "comment.create"
	ActionCommentReadInternal Action = "comment.read_internal"
	ActionCommentUpdate       Action = "comment.update"
	ActionCommentDelete       Action = "comment.delete"

	ActionAssetRead   Action = "asset.read"
	ActionAssetCreate Action = "asset.create"
	ActionAssetImport Action = "asset.import"
	ActionAssetUpdate Action = "asset.update"
	ActionAssetDelete Action = "asset.delete"
	ActionAssetScan   Action = "asset.scan"
	ActionAuditRead   Action = "asset.audit_read"

	// Движение остатков исторически не ограничено по ролям — любой
	// аутентифицированный пользователь. Зафиксировано как продуктовое решение.
	ActionStockAdjust Action = "asset.stock_adjust"
	ActionStockRead   Action = "asset.stock_read"
)

// Facts — факты владения ресурсом, которые политика не может узнать сама.
// Заполняются вызывающим сервисом из уже загруженной строки.
type Facts struct {
	TicketAssignedToActor  bool // ticket.assigned_engineer == actor.full_name
	TicketReportedByActor  bool // ticket.reporter_email == actor.email
	AssetAssignedToActor   bool // asset.assigned_user(_email) указывает на актора
	CommentAuthoredByActor bool
	CommentInternal        bool
}

// Authorize — чистая тотальная функция: (роль, действие, факты) -> nil | PermissionDeniedError.
// Неизвестная роль или действие всегда запрещены. Хранилище не трогает.
func Authorize(role model.Role, action Action, f Facts) error {
	switch role {
	case model.RoleAdmin, model.RoleEngineer, model.RoleReporter:
	default:
		return errs.PermissionDenied("unknown role")
	}
	if role == model.RoleAdmin {
		// Админу доступно всё из таблицы, кроме действий, которых нет вовсе.
		return nil
	}

	switch action {
	case ActionTicketCreate:
		if role == model.RoleReporter {
			return nil // хендлер принудительно подставляет данные самого репортёра
		}
		return errs.PermissionDenied("engineers cannot create tickets")

	case ActionTicketRead:
		if role == model.RoleEngineer && f.TicketAssignedToActor {
			return nil
		}
		if role == model.RoleReporter && f.TicketReportedByActor {
			return nil
		}
		return errs.PermissionDenied("ticket is not yours")

	case ActionTicketUpdate:
		return errs.PermissionDenied("only admin can edit ticket fields")

	case ActionTicketUpdateStatus, ActionTicketClose:
		if role == model.RoleEngineer && f.TicketAssignedToActor {
			return nil
		}
		return errs.PermissionDenied("status can be changed only on your assigned ticket")

	case ActionTicketDelete:
		return errs.PermissionDenied("only admin can delete tickets")

	case ActionCommentCreate:
		if role == model.RoleEngineer && f.TicketAssignedToActor {
			return nil
		}
		if role == model.RoleReporter && f.TicketReportedByActor && !f.CommentInternal {
			return nil
		}
		if role == model.RoleReporter && f.CommentInternal {
			return errs.PermissionDenied("reporters cannot create internal comments")
		}
		return errs.PermissionDenied("comments allowed only on your ticket")

	case ActionCommentReadInternal:
		if role == model.RoleEngineer && f.TicketAssignedToActor {
			return nil
		}
		return errs.PermissionDenied("internal comments are hidden")

	case ActionCommentUpdate, ActionCommentDelete:
		if f.CommentAuthoredByActor {
			return nil
		}
		return errs.PermissionDenied("only the author or admin can modify a comment")

	case ActionAssetRead:
		if role == model.RoleEngineer {
			return nil
		}
		if role == model.RoleReporter && f.AssetAssignedToActor {
			return nil
		}
		return errs.PermissionDenied("asset is not assigned to you")

	case ActionAssetCreate, ActionAssetImport, ActionAssetUpdate, ActionAssetDelete:
		return errs.PermissionDenied("only admin can manage the asset registry")

	case ActionAssetScan, ActionAuditRead:
		if role == model.RoleEngineer {
			return nil
		}
		return errs.PermissionDenied("reporters cannot scan or read audits")

	case ActionStockAdjust, ActionStockRead:
		return nil
	}

	return errs.PermissionDenied("unknown action")
}
