package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpdesk-service/internal/middleware"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/service"
)

type AssetHandler struct {
	svc *service.AssetService
}

func NewAssetHandler(svc *service.AssetService) *AssetHandler {
	return &AssetHandler{svc: svc}
}

type assetRequest struct {
	AssetID           string `json:"asset_id" binding:"required"`
	SerialNumber      string `json:"serial_number"`
	Hostname          string `json:"hostname"`
	QRCodeData        string `json:"qr_code_data"`
	Category          string `json:"category"`
	Status            string `json:"status"`
	AssignedUser      string `json:"assigned_user"`
	AssignedUserEmail string `json:"assigned_user_email"`
	IsConsumable      bool   `json:"is_consumable"`
	Quantity          int    `json:"quantity"`
	MinStockLevel     int    `json:"min_stock_level"`
}

func (r assetRequest) toInput() service.CreateAssetInput {
	return service.CreateAssetInput{
		AssetID:           r.AssetID,
		SerialNumber:      r.SerialNumber,
		Hostname:          r.Hostname,
		QRCodeData:        r.QRCodeData,
		Category:          r.Category,
		Status:            model.AssetStatus(r.Status),
		AssignedUser:      r.AssignedUser,
		AssignedUserEmail: r.AssignedUserEmail,
		IsConsumable:      r.IsConsumable,
		Quantity:          r.Quantity,
		MinStockLevel:     r.MinStockLevel,
	}
}

func (h *AssetHandler) Create(c *gin.Context) {
	var req assetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	asset, err := h.svc.Create(c.Request.Context(), middleware.Actor(c), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

func (h *AssetHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	asset, err := h.svc.GetByID(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

func (h *AssetHandler) List(c *gin.Context) {
	f := service.AssetFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
	}
	if v := c.Query("is_consumable"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			f.IsConsumable = &b
		}
	}
	limit, offset := parsePagination(c)
	items, total, err := h.svc.List(c.Request.Context(), middleware.Actor(c), f, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": items, "total": total})
}

type updateAssetRequest struct {
	SerialNumber      *string `json:"serial_number,omitempty"`
	Hostname          *string `json:"hostname,omitempty"`
	QRCodeData        *string `json:"qr_code_data,omitempty"`
	Category          *string `json:"category,omitempty"`
	Status            *string `json:"status,omitempty"`
	AssignedUser      *string `json:"assigned_user,omitempty"`
	AssignedUserEmail *string `json:"assigned_user_email,omitempty"`
	MinStockLevel     *int    `json:"min_stock_level,omitempty"`
}

func (h *AssetHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	var req updateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	in := service.UpdateAssetInput{
		SerialNumber:      req.SerialNumber,
		Hostname:          req.Hostname,
		QRCodeData:        req.QRCodeData,
		Category:          req.Category,
		AssignedUser:      req.AssignedUser,
		AssignedUserEmail: req.AssignedUserEmail,
		MinStockLevel:     req.MinStockLevel,
	}
	if req.Status != nil {
		status := model.AssetStatus(*req.Status)
		in.Status = &status
	}
	asset, err := h.svc.Update(c.Request.Context(), middleware.Actor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

func (h *AssetHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type bulkImportRequest struct {
	Assets []assetRequest `json:"assets" binding:"required"`
}

// BulkImport заводит активы пачкой. Ответ всегда 200 с пер-элементным отчётом:
// частичный успех — нормальный исход.
func (h *AssetHandler) BulkImport(c *gin.Context) {
	var req bulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	items := make([]service.CreateAssetInput, 0, len(req.Assets))
	for _, a := range req.Assets {
		items = append(items, a.toInput())
	}
	report, err := h.svc.BulkImport(c.Request.Context(), middleware.Actor(c), items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type bulkDeleteRequest struct {
	IDs []uint64 `json:"ids" binding:"required"`
}

func (h *AssetHandler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	report, err := h.svc.BulkDelete(c.Request.Context(), middleware.Actor(c), req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
