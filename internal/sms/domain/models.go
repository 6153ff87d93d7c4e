// Package domain contains contracts for outbound SMS dispatch.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// ErrorCategory classifies carrier failures so tenants can be told why a
// send failed, not just that it failed.
type ErrorCategory string

const (
	ErrorCategoryConfig           ErrorCategory = "configuration"
	ErrorCategoryAuth             ErrorCategory = "authentication"
	ErrorCategoryInvalidSender    ErrorCategory = "invalid_sender"
	ErrorCategoryTrialRestriction ErrorCategory = "trial_restriction"
	ErrorCategoryGeneric          ErrorCategory = "generic"
)

// SendError is the classified failure returned by the gateway. It never
// propagates as a panic or naked carrier error past the gateway boundary.
type SendError struct {
	Category ErrorCategory `json:"category"`
	Detail   string        `json:"detail"`
}

func (e *SendError) Error() string {
	return string(e.Category) + ": " + e.Detail
}

// SendResult carries the carrier-assigned message identifier on success.
type SendResult struct {
	MessageID string `json:"message_id"`
}

// Credentials is the closed set of ways a tenant can reach the carrier.
type Credentials interface {
	isCredentials()
}

// OwnCredentials are tenant-supplied carrier credentials (free tier).
type OwnCredentials struct {
	AccountSID string
	AuthToken  string
	Sender     string
}

func (OwnCredentials) isCredentials() {}

// ManagedCredentials selects the platform's own carrier account, granted on
// paid tiers.
type ManagedCredentials struct{}

func (ManagedCredentials) isCredentials() {}

// Classifier maps a raw carrier error onto an error category.
type Classifier func(error) ErrorCategory

// Carrier is the raw SMS provider API.
type Carrier interface {
	Send(ctx context.Context, accountSID, authToken, from, to, body string) (messageID string, err error)
}

// Service resolves per-tenant credentials and dispatches one message.
type Service interface {
	Send(ctx context.Context, userID snowflake.ID, toPhone, message string) (*SendResult, *SendError)
}
