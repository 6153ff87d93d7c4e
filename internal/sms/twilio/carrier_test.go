package twilio

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	twilioclient "github.com/twilio/twilio-go/client"

	"github.com/autoremind/autoremind/internal/sms/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorCategory
	}{
		{
			name: "authentication failure",
			err:  &twilioclient.TwilioRestError{Code: 20003, Status: 401},
			want: domain.ErrorCategoryAuth,
		},
		{
			name: "invalid from number",
			err:  &twilioclient.TwilioRestError{Code: 21212, Status: 400},
			want: domain.ErrorCategoryInvalidSender,
		},
		{
			name: "from number not owned by account",
			err:  &twilioclient.TwilioRestError{Code: 21606, Status: 400},
			want: domain.ErrorCategoryInvalidSender,
		},
		{
			name: "trial account unverified recipient",
			err:  &twilioclient.TwilioRestError{Code: 21608, Status: 400},
			want: domain.ErrorCategoryTrialRestriction,
		},
		{
			name: "unknown carrier code",
			err:  &twilioclient.TwilioRestError{Code: 30007, Status: 400},
			want: domain.ErrorCategoryGeneric,
		},
		{
			name: "wrapped carrier error",
			err:  fmt.Errorf("send: %w", &twilioclient.TwilioRestError{Code: 20003, Status: 401}),
			want: domain.ErrorCategoryAuth,
		},
		{
			name: "non carrier error",
			err:  errors.New("connection refused"),
			want: domain.ErrorCategoryGeneric,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
