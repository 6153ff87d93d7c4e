package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/autoremind/autoremind/internal/config"
	"github.com/autoremind/autoremind/internal/secrets"
	settingsdomain "github.com/autoremind/autoremind/internal/settings/domain"
	"github.com/autoremind/autoremind/internal/sms/domain"
)

type fakeCarrier struct {
	lastAccountSID string
	lastAuthToken  string
	lastFrom       string
	lastTo         string
	lastBody       string
	calls          int

	messageID string
	err       error
}

func (f *fakeCarrier) Send(_ context.Context, accountSID, authToken, from, to, body string) (string, error) {
	f.calls++
	f.lastAccountSID = accountSID
	f.lastAuthToken = authToken
	f.lastFrom = from
	f.lastTo = to
	f.lastBody = body
	if f.err != nil {
		return "", f.err
	}
	return f.messageID, nil
}

type fakeSettings struct {
	settings *settingsdomain.TenantSettings
	err      error
}

func (f *fakeSettings) GetOrCreate(context.Context, snowflake.ID) (*settingsdomain.TenantSettings, error) {
	return f.settings, f.err
}

func (f *fakeSettings) Find(context.Context, snowflake.ID) (*settingsdomain.TenantSettings, error) {
	return f.settings, f.err
}

func (f *fakeSettings) Update(context.Context, snowflake.ID, settingsdomain.UpdateRequest) (*settingsdomain.TenantSettings, error) {
	return f.settings, f.err
}

func (f *fakeSettings) SetManagedSMS(context.Context, snowflake.ID, bool) error {
	return f.err
}

func newTestService(t *testing.T, cfg config.Config, settings *fakeSettings, carrier *fakeCarrier, classify domain.Classifier) domain.Service {
	t.Helper()
	log := zap.NewNop()
	if classify == nil {
		classify = func(error) domain.ErrorCategory { return domain.ErrorCategoryGeneric }
	}
	return New(Params{
		In:       fx.In{},
		Log:      log,
		Config:   cfg,
		Settings: settings,
		Codec:    secrets.NewCodec("test-credential-secret", log),
		Carrier:  carrier,
		Classify: classify,
	})
}

func TestSendUsesOwnCredentials(t *testing.T) {
	log := zap.NewNop()
	codec := secrets.NewCodec("test-credential-secret", log)
	encrypted, err := codec.Encrypt("tenant-auth-token")
	require.NoError(t, err)

	carrier := &fakeCarrier{messageID: "SM123"}
	settings := &fakeSettings{settings: &settingsdomain.TenantSettings{
		SMSAccountSID: "ACtenant",
		SMSAuthToken:  encrypted,
		SMSFromNumber: "+351912000000",
	}}

	svc := newTestService(t, config.Config{}, settings, carrier, nil)

	result, sendErr := svc.Send(context.Background(), snowflake.ID(1), "+351911111111", "hello")
	require.Nil(t, sendErr)
	require.NotNil(t, result)
	assert.Equal(t, "SM123", result.MessageID)
	assert.Equal(t, "ACtenant", carrier.lastAccountSID)
	assert.Equal(t, "tenant-auth-token", carrier.lastAuthToken)
	assert.Equal(t, "+351912000000", carrier.lastFrom)
	assert.Equal(t, "+351911111111", carrier.lastTo)
	assert.Equal(t, "hello", carrier.lastBody)
}

func TestSendManagedUsesPlatformCredentials(t *testing.T) {
	carrier := &fakeCarrier{messageID: "SM456"}
	settings := &fakeSettings{settings: &settingsdomain.TenantSettings{
		ManagedSMS: true,
		// Tenant credentials present but must be ignored on managed plans.
		SMSAccountSID: "ACtenant",
		SMSAuthToken:  "whatever",
		SMSFromNumber: "+351912000000",
	}}
	cfg := config.Config{
		PlatformSMSAccountSID: "ACplatform",
		PlatformSMSAuthToken:  "platform-token",
		PlatformSMSFrom:       "+14155550100",
	}

	svc := newTestService(t, cfg, settings, carrier, nil)

	result, sendErr := svc.Send(context.Background(), snowflake.ID(1), "+351911111111", "hi")
	require.Nil(t, sendErr)
	assert.Equal(t, "SM456", result.MessageID)
	assert.Equal(t, "ACplatform", carrier.lastAccountSID)
	assert.Equal(t, "platform-token", carrier.lastAuthToken)
	assert.Equal(t, "+14155550100", carrier.lastFrom)
}

func TestSendFailsFastWithoutCredentials(t *testing.T) {
	tests := []struct {
		name     string
		settings *settingsdomain.TenantSettings
	}{
		{name: "no settings row", settings: nil},
		{name: "missing account sid", settings: &settingsdomain.TenantSettings{
			SMSAuthToken:  "token",
			SMSFromNumber: "+351912000000",
		}},
		{name: "missing auth token", settings: &settingsdomain.TenantSettings{
			SMSAccountSID: "AC1",
			SMSFromNumber: "+351912000000",
		}},
		{name: "missing sender number", settings: &settingsdomain.TenantSettings{
			SMSAccountSID: "AC1",
			SMSAuthToken:  "token",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carrier := &fakeCarrier{}
			svc := newTestService(t, config.Config{}, &fakeSettings{settings: tt.settings}, carrier, nil)

			result, sendErr := svc.Send(context.Background(), snowflake.ID(1), "+351911111111", "hi")
			assert.Nil(t, result)
			require.NotNil(t, sendErr)
			assert.Equal(t, domain.ErrorCategoryConfig, sendErr.Category)
			assert.Equal(t, 0, carrier.calls, "carrier must not be called without credentials")
		})
	}
}

func TestSendManagedFailsFastWithoutPlatformCredentials(t *testing.T) {
	carrier := &fakeCarrier{}
	settings := &fakeSettings{settings: &settingsdomain.TenantSettings{ManagedSMS: true}}

	svc := newTestService(t, config.Config{}, settings, carrier, nil)

	result, sendErr := svc.Send(context.Background(), snowflake.ID(1), "+351911111111", "hi")
	assert.Nil(t, result)
	require.NotNil(t, sendErr)
	assert.Equal(t, domain.ErrorCategoryConfig, sendErr.Category)
	assert.Equal(t, 0, carrier.calls)
}

func TestSendEmptyRecipient(t *testing.T) {
	carrier := &fakeCarrier{}
	svc := newTestService(t, config.Config{}, &fakeSettings{}, carrier, nil)

	result, sendErr := svc.Send(context.Background(), snowflake.ID(1), "  ", "hi")
	assert.Nil(t, result)
	require.NotNil(t, sendErr)
	assert.Equal(t, domain.ErrorCategoryConfig, sendErr.Category)
	assert.Equal(t, 0, carrier.calls)
}

func TestSendClassifiesCarrierErrors(t *testing.T) {
	carrierErr := errors.New("carrier said no")
	carrier := &fakeCarrier{err: carrierErr}
	settings := &fakeSettings{settings: &settingsdomain.TenantSettings{
		SMSAccountSID: "AC1",
		SMSAuthToken:  "token",
		SMSFromNumber: "+351912000000",
	}}
	classify := func(err error) domain.ErrorCategory {
		require.Equal(t, carrierErr, err)
		return domain.ErrorCategoryAuth
	}

	svc := newTestService(t, config.Config{}, settings, carrier, classify)

	result, sendErr := svc.Send(context.Background(), snowflake.ID(1), "+351911111111", "hi")
	assert.Nil(t, result)
	require.NotNil(t, sendErr)
	assert.Equal(t, domain.ErrorCategoryAuth, sendErr.Category)
	assert.Contains(t, sendErr.Detail, "carrier said no")
}
