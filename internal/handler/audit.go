package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpdesk-service/internal/middleware"
	"github.com/psds-microservice/helpdesk-service/internal/service"
)

type AuditHandler struct {
	svc *service.AuditService
}

func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

type scanRequest struct {
	CodeData string `json:"code_data" binding:"required"`
	Notes    string `json:"notes"`
}

// Scan сверяет код с реестром. not_found и invalid — штатные ответы 200,
// а не ошибки: строка аудита записана в любом случае.
func (h *AuditHandler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	res, err := h.svc.Scan(c.Request.Context(), middleware.Actor(c), service.ScanInput{
		CodeData: req.CodeData,
		Notes:    req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuditHandler) List(c *gin.Context) {
	f := service.AuditFilter{Status: c.Query("status")}
	if v := c.Query("asset_id"); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			f.AssetID = parsed
		}
	}
	limit, offset := parsePagination(c)
	items, total, err := h.svc.List(c.Request.Context(), middleware.Actor(c), f, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": items, "total": total})
}
