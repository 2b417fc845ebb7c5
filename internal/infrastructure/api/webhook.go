package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campaignflow/engine/internal/domain/repository"
	"github.com/campaignflow/engine/internal/infrastructure/logger"
)

// ReplyWebhookPayload is the inbound reply-signal delivery: a list of
// attendees, each possibly matching a known lead by provider identifier.
type ReplyWebhookPayload struct {
	Attendees []struct {
		AttendeeProviderID string `json:"attendee_provider_id"`
	} `json:"attendees"`
}

// WebhookHandlers serves the single inbound reply-signal webhook.
type WebhookHandlers struct {
	leads  repository.LeadRepository
	steps  repository.StepRepository
	logger *logger.Logger
}

// NewWebhookHandlers builds a WebhookHandlers.
func NewWebhookHandlers(leads repository.LeadRepository, steps repository.StepRepository, log *logger.Logger) *WebhookHandlers {
	return &WebhookHandlers{leads: leads, steps: steps, logger: log}
}

// HandleReply handles POST /webhooks/reply. For every attendee matching a
// known lead, every PENDING check_message_reply step for that lead has
// raw_response.hasReplied set to true, so the next poll tick stops that
// lead's branch. Bookkeeping failures never fail the request: the response
// is always {captured: true} and the error is only logged, since the
// delivering system has no way to usefully retry a partial match.
func (h *WebhookHandlers) HandleReply(c *gin.Context) {
	var payload ReplyWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Error("reply webhook: invalid body", "error", err)
		c.JSON(http.StatusOK, gin.H{"captured": true})
		return
	}

	providerIDs := make([]string, 0, len(payload.Attendees))
	for _, a := range payload.Attendees {
		if a.AttendeeProviderID != "" {
			providerIDs = append(providerIDs, a.AttendeeProviderID)
		}
	}
	if len(providerIDs) == 0 {
		c.JSON(http.StatusOK, gin.H{"captured": true})
		return
	}

	ctx := c.Request.Context()
	leads, err := h.leads.FindByProviderIdentifiers(ctx, providerIDs)
	if err != nil {
		h.logger.Error("reply webhook: lead lookup failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"captured": true})
		return
	}
	if len(leads) == 0 {
		c.JSON(http.StatusOK, gin.H{"captured": true})
		return
	}

	leadIDs := make([]string, len(leads))
	for i, l := range leads {
		leadIDs[i] = l.ID
	}

	count, err := h.steps.MarkHasReplied(ctx, leadIDs)
	if err != nil {
		h.logger.Error("reply webhook: mark has-replied failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"captured": true})
		return
	}

	h.logger.Info("reply webhook captured", "leads_matched", len(leads), "steps_marked", count)
	c.JSON(http.StatusOK, gin.H{"captured": true})
}
