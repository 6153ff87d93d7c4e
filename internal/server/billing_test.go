package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autoremind/autoremind/internal/config"
	paymentsstripe "github.com/autoremind/autoremind/internal/payments/stripe"
	subscriptiondomain "github.com/autoremind/autoremind/internal/subscription/domain"
)

type fakeSubscriptionService struct {
	events    []subscriptiondomain.ProviderEvent
	handleErr error
}

func (f *fakeSubscriptionService) GetOrCreate(context.Context, snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return &subscriptiondomain.Subscription{}, nil
}

func (f *fakeSubscriptionService) CreateCheckout(context.Context, snowflake.ID, subscriptiondomain.CheckoutRequest) (string, error) {
	return "", nil
}

func (f *fakeSubscriptionService) CreatePortal(context.Context, snowflake.ID, string) (string, error) {
	return "", nil
}

func (f *fakeSubscriptionService) ChangePlan(context.Context, snowflake.ID, string) (*subscriptiondomain.Subscription, error) {
	return nil, nil
}

func (f *fakeSubscriptionService) HandleEvent(_ context.Context, event subscriptiondomain.ProviderEvent) error {
	f.events = append(f.events, event)
	return f.handleErr
}

func buildStripeSignatureHeader(secret string, payload []byte, at time.Time) string {
	timestamp := fmt.Sprintf("%d", at.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp + "." + string(payload)))
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func newWebhookTestServer(t *testing.T, secret string, subs *fakeSubscriptionService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	srv := &Server{
		engine:          engine,
		log:             zap.NewNop(),
		subscriptionSvc: subs,
		webhook:         paymentsstripe.NewWebhook(secret),
	}
	engine.POST("/payments/webhook", srv.HandleBillingWebhook)
	return engine
}

func postWebhook(engine *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	subs := &fakeSubscriptionService{}
	engine := newWebhookTestServer(t, "whsec_test", subs)

	payload := []byte(`{"id":"evt_1","type":"invoice.payment_failed","data":{"object":{"customer":"cus_1"}}}`)

	rec := postWebhook(engine, payload, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postWebhook(engine, payload, buildStripeSignatureHeader("whsec_wrong", payload, time.Now()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, subs.events, "no state change on rejected signature")
}

func TestWebhookProcessesValidEvent(t *testing.T) {
	subs := &fakeSubscriptionService{}
	engine := newWebhookTestServer(t, "whsec_test", subs)

	payload := []byte(`{"id":"evt_2","type":"invoice.payment_failed","data":{"object":{"customer":"cus_1"}}}`)
	rec := postWebhook(engine, payload, buildStripeSignatureHeader("whsec_test", payload, time.Now()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"received":true`)
	require.Len(t, subs.events, 1)
	assert.Equal(t, "evt_2", subs.events[0].ID)
	assert.Equal(t, "invoice.payment_failed", subs.events[0].Type)
	assert.Equal(t, "cus_1", subs.events[0].CustomerID)
}

func TestWebhookProcessingErrorReturns500(t *testing.T) {
	subs := &fakeSubscriptionService{handleErr: errors.New("provider fetch failed")}
	engine := newWebhookTestServer(t, "whsec_test", subs)

	payload := []byte(`{"id":"evt_3","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","customer":"cus_1"}}}`)
	rec := postWebhook(engine, payload, buildStripeSignatureHeader("whsec_test", payload, time.Now()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// The provider error detail never leaks to the response.
	assert.NotContains(t, rec.Body.String(), "provider fetch failed")
}

func TestCronAuthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func(header string) *gin.Context {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/cron/reminders", nil)
		if header != "" {
			c.Request.Header.Set("Authorization", header)
		}
		return c
	}

	open := &Server{cfg: config.Config{}}
	assert.True(t, open.cronAuthorized(newCtx("")))

	guarded := &Server{cfg: config.Config{CronSecret: "s3cret"}}
	assert.False(t, guarded.cronAuthorized(newCtx("")))
	assert.False(t, guarded.cronAuthorized(newCtx("Bearer wrong")))
	assert.False(t, guarded.cronAuthorized(newCtx("s3cret")))
	assert.True(t, guarded.cronAuthorized(newCtx("Bearer s3cret")))
}
