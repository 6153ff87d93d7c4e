// Package twilio implements the carrier contract against the Twilio
// Messages API.
package twilio

import (
	"context"
	"errors"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/autoremind/autoremind/internal/sms/domain"
)

// Twilio error codes the gateway cares about. Anything else is generic.
const (
	codeAuthenticate      = 20003
	codeInvalidFrom       = 21212
	codeFromNotOwned      = 21606
	codeTrialUnverifiedTo = 21608
)

type Carrier struct{}

func New() *Carrier {
	return &Carrier{}
}

// Send builds a fresh REST client per call because credentials vary per
// tenant.
func (c *Carrier) Send(ctx context.Context, accountSID, authToken, from, to, body string) (string, error) {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	params := &api.CreateMessageParams{}
	params.SetBody(body)
	params.SetFrom(from)
	params.SetTo(to)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

// Classify maps a carrier error onto the gateway's error categories.
func Classify(err error) domain.ErrorCategory {
	var restErr *twilioclient.TwilioRestError
	if !errors.As(err, &restErr) {
		return domain.ErrorCategoryGeneric
	}
	switch restErr.Code {
	case codeAuthenticate:
		return domain.ErrorCategoryAuth
	case codeInvalidFrom, codeFromNotOwned:
		return domain.ErrorCategoryInvalidSender
	case codeTrialUnverifiedTo:
		return domain.ErrorCategoryTrialRestriction
	default:
		return domain.ErrorCategoryGeneric
	}
}
