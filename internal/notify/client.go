package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/rs/zerolog"
)

// Client отправляет уведомления о тикетах в notification-service
// (best-effort, не блокирует API и не откатывает мутацию при сбое).
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient возвращает клиент. Если baseURL пустой, вызовы — no-op.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		log:     log,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// TicketNotificationPayload — тело POST /notify/ticket.
type TicketNotificationPayload struct {
	TicketID      uint64 `json:"ticket_id"`
	Subject       string `json:"subject"`
	Status        string `json:"status"`
	ReporterName  string `json:"reporter_name"`
	ReporterEmail string `json:"reporter_email"`
	Resolution    string `json:"resolution,omitempty"`
	Action        string `json:"action"`
}

// NotifyTicket отправляет уведомление. Вызывать в горутине после мутации.
func (c *Client) NotifyTicket(ctx context.Context, t *model.Ticket, action string) {
	if c.baseURL == "" || t.ReporterEmail == "" {
		return
	}
	payload := TicketNotificationPayload{
		TicketID:      t.ID,
		Subject:       t.Subject,
		Status:        string(t.Status),
		ReporterName:  t.ReporterName,
		ReporterEmail: t.ReporterEmail,
		Resolution:    t.Resolution,
		Action:        action,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Error().Err(err).Msg("notify: marshal")
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notify/ticket", bytes.NewReader(body))
	if err != nil {
		c.log.Error().Err(err).Msg("notify: new request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Uint64("ticket_id", t.ID).Msg("notify: request")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		c.log.Error().Int("status", resp.StatusCode).Uint64("ticket_id", t.ID).Msg("notify: bad status")
	}
}

// NotifyTicketAsync вызывает NotifyTicket в отдельной горутине (не блокирует ответ API).
func (c *Client) NotifyTicketAsync(t *model.Ticket, action string) {
	if c.baseURL == "" {
		return
	}
	snapshot := *t
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.NotifyTicket(ctx, &snapshot, action)
	}()
}
