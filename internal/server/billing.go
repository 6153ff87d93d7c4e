package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/autoremind/autoremind/internal/metrics"
	subscriptiondomain "github.com/autoremind/autoremind/internal/subscription/domain"
	"github.com/autoremind/autoremind/pkg/tenantctx"
)

type subscriptionResponse struct {
	Tier             string     `json:"tier"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
}

func (s *Server) GetSubscription(c *gin.Context) {
	userID, ok := tenantctx.TenantID(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	sub, err := s.subscriptionSvc.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subscriptionResponse{
		Tier:             string(sub.Tier),
		Status:           string(sub.Status),
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}})
}

type checkoutRequest struct {
	Tier       string `json:"tier"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

func (s *Server) CreateCheckout(c *gin.Context) {
	userID, ok := tenantctx.TenantID(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	url, err := s.subscriptionSvc.CreateCheckout(c.Request.Context(), userID, subscriptiondomain.CheckoutRequest{
		Tier:       strings.TrimSpace(req.Tier),
		SuccessURL: strings.TrimSpace(req.SuccessURL),
		CancelURL:  strings.TrimSpace(req.CancelURL),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}})
}

type portalRequest struct {
	ReturnURL string `json:"return_url"`
}

func (s *Server) CreatePortal(c *gin.Context) {
	userID, ok := tenantctx.TenantID(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req portalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	url, err := s.subscriptionSvc.CreatePortal(c.Request.Context(), userID, strings.TrimSpace(req.ReturnURL))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}})
}

type changePlanRequest struct {
	Tier string `json:"tier"`
}

func (s *Server) ChangePlan(c *gin.Context) {
	userID, ok := tenantctx.TenantID(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req changePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sub, err := s.subscriptionSvc.ChangePlan(c.Request.Context(), userID, strings.TrimSpace(req.Tier))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subscriptionResponse{
		Tier:             string(sub.Tier),
		Status:           string(sub.Status),
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}})
}

// HandleBillingWebhook verifies, parses and applies one provider event. A
// bad signature is rejected before any state change; processing errors
// return a generic 500 so the provider retries.
func (s *Server) HandleBillingWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if err := s.webhook.Verify(payload, c.GetHeader("Stripe-Signature")); err != nil {
		metrics.Default().IncWebhookEvent("unknown", metrics.WebhookOutcomeDropped)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	event, err := s.webhook.Parse(payload)
	if err != nil {
		metrics.Default().IncWebhookEvent("unknown", metrics.WebhookOutcomeDropped)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := s.subscriptionSvc.HandleEvent(c.Request.Context(), event); err != nil {
		metrics.Default().IncWebhookEvent(event.Type, metrics.WebhookOutcomeError)
		s.log.Error("webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	metrics.Default().IncWebhookEvent(event.Type, metrics.WebhookOutcomeProcessed)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
