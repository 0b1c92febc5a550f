package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpdesk-service/internal/middleware"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/service"
)

type StockHandler struct {
	svc *service.StockService
}

func NewStockHandler(svc *service.StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

type adjustStockRequest struct {
	Type            string `json:"type" binding:"required"`
	Quantity        int    `json:"quantity"`
	Reason          string `json:"reason"`
	ReferenceNumber string `json:"reference_number"`
}

func (h *StockHandler) Adjust(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	switch model.TransactionType(req.Type) {
	case model.TransactionTypeAdd, model.TransactionTypeRemove,
		model.TransactionTypeAdjustment, model.TransactionTypeInitial:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown transaction type"})
		return
	}
	asset, tr, err := h.svc.Adjust(c.Request.Context(), middleware.Actor(c), id, service.AdjustStockInput{
		Type:            model.TransactionType(req.Type),
		Quantity:        req.Quantity,
		Reason:          req.Reason,
		ReferenceNumber: req.ReferenceNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quantity":    asset.Quantity,
		"transaction": tr,
	})
}

func (h *StockHandler) Transactions(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	limit, offset := parsePagination(c)
	items, total, err := h.svc.Transactions(c.Request.Context(), middleware.Actor(c), id, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": items, "total": total})
}

func (h *StockHandler) LowStock(c *gin.Context) {
	items, err := h.svc.LowStock(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": items})
}
