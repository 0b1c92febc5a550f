package errs

import "errors"

var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrAssetNotFound   = errors.New("asset not found")

	// ErrNotConsumable — попытка движения остатков по активу без учёта расходников.
	ErrNotConsumable = errors.New("asset is not consumable")
	// ErrInsufficientStock — списание больше текущего остатка. Журнал не меняется.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStockAlreadyTracked — транзакция initial по активу, у которого уже есть журнал.
	ErrStockAlreadyTracked = errors.New("stock already tracked for asset")
	// ErrInvalidTransition — смена статуса тикета вне таблицы допустимых переходов.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPermissionDenied — маркер для errors.Is; конкретная причина в PermissionDeniedError.
	ErrPermissionDenied = errors.New("permission denied")
)

// PermissionDeniedError — отказ RBAC-политики с причиной для ответа пользователю.
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	if e.Reason == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Reason
}

func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// PermissionDenied создаёт отказ с причиной.
func PermissionDenied(reason string) error {
	return &PermissionDeniedError{Reason: reason}
}
