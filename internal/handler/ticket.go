package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpdesk-service/internal/middleware"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/service"
)

type TicketHandler struct {
	svc *service.TicketService
}

func NewTicketHandler(svc *service.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

type createTicketRequest struct {
	Subject          string     `json:"subject" binding:"required"`
	Description      string     `json:"description"`
	Priority         string     `json:"priority"`
	AssignedEngineer string     `json:"assigned_engineer"`
	ReporterName     string     `json:"reporter_name"`
	ReporterEmail    string     `json:"reporter_email"`
	CompanyName      string     `json:"company_name"`
	CustomDate       *time.Time `json:"custom_date"`
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	t, err := h.svc.Create(c.Request.Context(), middleware.Actor(c), service.CreateTicketInput{
		Subject:          req.Subject,
		Description:      req.Description,
		Priority:         model.TicketPriority(req.Priority),
		AssignedEngineer: req.AssignedEngineer,
		ReporterName:     req.ReporterName,
		ReporterEmail:    req.ReporterEmail,
		CompanyName:      req.CompanyName,
		CustomDate:       req.CustomDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TicketHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) List(c *gin.Context) {
	f := service.TicketFilter{
		Status:           c.Query("status"),
		Priority:         c.Query("priority"),
		AssignedEngineer: c.Query("assigned_engineer"),
		ReporterEmail:    c.Query("reporter_email"),
		CompanyName:      c.Query("company_name"),
	}
	limit, offset := parsePagination(c)
	items, total, err := h.svc.List(c.Request.Context(), middleware.Actor(c), f, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": items, "total": total})
}

type updateTicketRequest struct {
	Subject          *string    `json:"subject,omitempty"`
	Description      *string    `json:"description,omitempty"`
	Status           *string    `json:"status,omitempty"`
	Priority         *string    `json:"priority,omitempty"`
	AssignedEngineer *string    `json:"assigned_engineer,omitempty"`
	ReporterName     *string    `json:"reporter_name,omitempty"`
	ReporterEmail    *string    `json:"reporter_email,omitempty"`
	CompanyName      *string    `json:"company_name,omitempty"`
	Resolution       *string    `json:"resolution,omitempty"`
	CustomDate       *time.Time `json:"custom_date,omitempty"`
}

func (h *TicketHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	var req updateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	in := service.UpdateTicketInput{
		Subject:          req.Subject,
		Description:      req.Description,
		AssignedEngineer: req.AssignedEngineer,
		ReporterName:     req.ReporterName,
		ReporterEmail:    req.ReporterEmail,
		CompanyName:      req.CompanyName,
		Resolution:       req.Resolution,
		CustomDate:       req.CustomDate,
	}
	if req.Status != nil {
		status := model.TicketStatus(*req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		in.Status = &status
	}
	if req.Priority != nil {
		priority := model.TicketPriority(*req.Priority)
		in.Priority = &priority
	}
	t, err := h.svc.Update(c.Request.Context(), middleware.Actor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type closeTicketRequest struct {
	Resolution string `json:"resolution"`
}

func (h *TicketHandler) Close(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	var req closeTicketRequest
	// Тело необязательно: закрытие без текста решения допустимо.
	_ = c.ShouldBindJSON(&req)
	t, err := h.svc.Close(c.Request.Context(), middleware.Actor(c), id, req.Resolution)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) Delete(c *gin.Context) {
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

type createCommentRequest struct {
	Body       string `json:"body" binding:"required"`
	IsInternal bool   `json:"is_internal"`
}

func (h *TicketHandler) CreateComment(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	comment, err := h.svc.AddComment(c.Request.Context(), middleware.Actor(c), id, service.CreateCommentInput{
		Body:       req.Body,
		IsInternal: req.IsInternal,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *TicketHandler) ListComments(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	items, err := h.svc.ListComments(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": items})
}

type updateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

func (h *TicketHandler) UpdateComment(c *gin.Context) {
	commentID, err := parseParamID(c, "comment_id")
	if err != nil {
		return
	}
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	comment, err := h.svc.UpdateComment(c.Request.Context(), middleware.Actor(c), commentID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *TicketHandler) DeleteComment(c *gin.Context) {
	commentID, err := parseParamID(c, "comment_id")
	if err != nil {
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), middleware.Actor(c), commentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uint64, error) {
	return parseParamID(c, "id")
}

func parseParamID(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, err
	}
	return id, nil
}

func parsePagination(c *gin.Context) (limit, offset int) {
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
