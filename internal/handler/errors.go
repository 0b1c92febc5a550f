package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpdesk-service/internal/errs"
)

// respondError переводит доменную ошибку в HTTP-ответ.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrTicketNotFound),
		errors.Is(err, errs.ErrCommentNotFound),
		errors.Is(err, errs.ErrAssetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNotConsumable),
		errors.Is(err, errs.ErrInsufficientStock),
		errors.Is(err, errs.ErrStockAlreadyTracked),
		errors.Is(err, errs.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
