package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/autoremind/autoremind/internal/subscription/domain"
)

var (
	ErrInvalidSignature = errors.New("invalid_webhook_signature")
	ErrInvalidPayload   = errors.New("invalid_webhook_payload")
)

// Webhook verifies and parses Stripe webhook deliveries.
type Webhook struct {
	secret string
}

func NewWebhook(secret string) *Webhook {
	return &Webhook{secret: strings.TrimSpace(secret)}
}

// Verify checks the Stripe-Signature header against the payload. An invalid
// signature must reject the delivery before any state change.
func (w *Webhook) Verify(payload []byte, sigHeader string) error {
	if w.secret == "" {
		return ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(strings.TrimSpace(sigHeader))
	if err != nil {
		return ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(w.secret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID           string `json:"id"`
			Customer     string `json:"customer"`
			Subscription string `json:"subscription"`
		} `json:"object"`
	} `json:"data"`
}

// Parse extracts the identifiers the state machine needs. Only identifiers
// are taken from the payload; handlers re-fetch the full objects.
func (w *Webhook) Parse(payload []byte) (domain.ProviderEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.ProviderEvent{}, ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" || strings.TrimSpace(event.Type) == "" {
		return domain.ProviderEvent{}, ErrInvalidPayload
	}

	parsed := domain.ProviderEvent{
		ID:             event.ID,
		Type:           strings.TrimSpace(event.Type),
		CustomerID:     strings.TrimSpace(event.Data.Object.Customer),
		SubscriptionID: strings.TrimSpace(event.Data.Object.Subscription),
	}

	// For customer.subscription.* events the object is the subscription
	// itself rather than a reference to one.
	if strings.HasPrefix(parsed.Type, "customer.subscription.") {
		parsed.SubscriptionID = strings.TrimSpace(event.Data.Object.ID)
	}

	return parsed, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	if header == "" {
		return "", nil, ErrInvalidSignature
	}

	var timestamp string
	signatures := []string{}
	for _, part := range strings.Split(header, ",") {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return "", nil, ErrInvalidSignature
	}
	return timestamp, signatures, nil
}
