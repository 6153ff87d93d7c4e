package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	authdomain "github.com/autoremind/autoremind/internal/auth/domain"
	authrepo "github.com/autoremind/autoremind/internal/auth/repository"
	"github.com/autoremind/autoremind/internal/config"
	"github.com/autoremind/autoremind/internal/plan"
	settingsdomain "github.com/autoremind/autoremind/internal/settings/domain"
	"github.com/autoremind/autoremind/internal/subscription/domain"
	"github.com/autoremind/autoremind/internal/subscription/repository"
	subscriptionservice "github.com/autoremind/autoremind/internal/subscription/service"
)

type fakeProvider struct {
	subscriptions map[string]*domain.ProviderSubscription
	invoices      map[string]*domain.ProviderInvoice

	createdCustomers int
}

func (f *fakeProvider) CreateCustomer(context.Context, string, string) (string, error) {
	f.createdCustomers++
	return fmt.Sprintf("cus_%d", f.createdCustomers), nil
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, customerID, priceID, _, _ string) (string, error) {
	return "https://checkout.example/" + customerID + "/" + priceID, nil
}

func (f *fakeProvider) CreateBillingPortalSession(_ context.Context, customerID, _ string) (string, error) {
	return "https://portal.example/" + customerID, nil
}

func (f *fakeProvider) RetrieveSubscription(_ context.Context, id string) (*domain.ProviderSubscription, error) {
	sub, ok := f.subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("no such subscription %q", id)
	}
	return sub, nil
}

func (f *fakeProvider) RetrieveInvoice(_ context.Context, id string) (*domain.ProviderInvoice, error) {
	invoice, ok := f.invoices[id]
	if !ok {
		return nil, fmt.Errorf("no such invoice %q", id)
	}
	return invoice, nil
}

func (f *fakeProvider) UpdateSubscriptionPrice(_ context.Context, subscriptionID, priceID string) (*domain.ProviderSubscription, error) {
	sub, ok := f.subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("no such subscription %q", subscriptionID)
	}
	sub.PriceID = priceID
	return sub, nil
}

type managedSMSRecorder struct {
	states map[snowflake.ID]bool
}

func (m *managedSMSRecorder) GetOrCreate(_ context.Context, userID snowflake.ID) (*settingsdomain.TenantSettings, error) {
	return &settingsdomain.TenantSettings{UserID: userID}, nil
}

func (m *managedSMSRecorder) Find(context.Context, snowflake.ID) (*settingsdomain.TenantSettings, error) {
	return nil, nil
}

func (m *managedSMSRecorder) Update(context.Context, snowflake.ID, settingsdomain.UpdateRequest) (*settingsdomain.TenantSettings, error) {
	return nil, nil
}

func (m *managedSMSRecorder) SetManagedSMS(_ context.Context, userID snowflake.ID, enabled bool) error {
	if m.states == nil {
		m.states = map[snowflake.ID]bool{}
	}
	m.states[userID] = enabled
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_subscription_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			display_name TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE subscriptions (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			tier TEXT NOT NULL DEFAULT 'free',
			status TEXT NOT NULL DEFAULT 'active',
			stripe_customer_id TEXT,
			stripe_subscription_id TEXT,
			stripe_price_id TEXT,
			current_period_end TIMESTAMP,
			cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_subscriptions_user_id ON subscriptions(user_id)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

type testEnv struct {
	db       *gorm.DB
	svc      domain.Service
	provider *fakeProvider
	settings *managedSMSRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	provider := &fakeProvider{
		subscriptions: map[string]*domain.ProviderSubscription{},
		invoices:      map[string]*domain.ProviderInvoice{},
	}
	settings := &managedSMSRecorder{}

	svc := subscriptionservice.New(subscriptionservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg: config.Config{
			StripePriceStarter: "price_starter",
			StripePricePro:     "price_pro",
		},
		Repo:        repository.Provide(),
		AuthRepo:    authrepo.Provide(),
		SettingsSvc: settings,
		Provider:    provider,
	})

	return &testEnv{db: db, svc: svc, provider: provider, settings: settings}
}

func (e *testEnv) insertUser(t *testing.T, id int64, email string) {
	t.Helper()
	now := time.Now().UTC()
	err := e.db.Create(&authdomain.User{
		ID:           snowflake.ID(id),
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}).Error
	require.NoError(t, err)
}

func TestGetOrCreateDefaultsToFreeActive(t *testing.T) {
	env := newTestEnv(t)
	env.insertUser(t, 1, "ana@example.com")

	sub, err := env.svc.GetOrCreate(context.Background(), snowflake.ID(1))
	require.NoError(t, err)
	assert.Equal(t, plan.TierFree, sub.Tier)
	assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)

	// A second call returns the same row.
	again, err := env.svc.GetOrCreate(context.Background(), snowflake.ID(1))
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)
}

func TestCreateCheckoutStoresCustomerIDBeforeRedirect(t *testing.T) {
	env := newTestEnv(t)
	env.insertUser(t, 1, "ana@example.com")

	url, err := env.svc.CreateCheckout(context.Background(), snowflake.ID(1), domain.CheckoutRequest{
		Tier:       "pro",
		SuccessURL: "https://app.example/ok",
		CancelURL:  "https://app.example/no",
	})
	require.NoError(t, err)
	assert.Contains(t, url, "cus_1")
	assert.Contains(t, url, "price_pro")

	// The local row already knows the customer, so the later webhook can
	// find it.
	sub, err := env.svc.GetOrCreate(context.Background(), snowflake.ID(1))
	require.NoError(t, err)
	assert.Equal(t, "cus_1", sub.StripeCustomerID)
}

func TestCheckoutCompletedUpgradesAndEnablesManagedSMS(t *testing.T) {
	env := newTestEnv(t)
	env.insertUser(t, 1, "ana@example.com")

	_, err := env.svc.CreateCheckout(context.Background(), snowflake.ID(1), domain.CheckoutRequest{Tier: "pro"})
	require.NoError(t, err)

	periodEnd := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	env.provider.subscriptions["sub_1"] = &domain.ProviderSubscription{
		ID:              "sub_1",
		CustomerID:      "cus_1",
		Status:          "active",
		PriceID:         "price_pro",
		LatestInvoiceID: "in_1",
	}
	env.provider.invoices["in_1"] = &domain.ProviderInvoice{ID: "in_1", PeriodEnd: &periodEnd}

	err = env.svc.HandleEvent(context.Background(), domain.ProviderEvent{
		ID:             "evt_1",
		Type:           domain.EventCheckoutCompleted,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)

	sub, err := env.svc.GetOrCreate(context.Background(), snowflake.ID(1))
	require.NoError(t, err)
	assert.Equal(t, plan.TierPro, sub.Tier)
	assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.True(t, periodEnd.Equal(*sub.CurrentPeriodEnd))
	assert.True(t, env.settings.states[snowflake.ID(1)])
}

func TestSubscriptionUpdatedIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.insertUser(t, 1, "ana@example.com")

	_, err := env.svc.CreateCheckout(context.Background(), snowflake.ID(1), domain.CheckoutRequest{Tier: "starter"})
	require.NoError(t, err)

	env.provider.subscriptions["sub_1"] = &domain.ProviderSubscription{
		ID:         "sub_1",
		CustomerID: "cus_1",
		Status:     "active",
		PriceID:    "price_pro",
	}

	event := domain.ProviderEvent{
		ID:             "evt_up",
		Type:           domain.EventSubscriptionUpdated,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	}

	// Duplicate delivery must land on the same final state.
	require.NoError(t, env.svc.HandleEvent(context.Background(), event))
	first, err := env.svc.GetOrCreate(context.Background(), snowflake.ID(1))
	require.NoError(t, err)

	require.NoError(t, env.svc.HandleEvent(context.Background(), event))
	second, err := env.svc.GetOrCreate(context.Background(), snowflake.ID(1))
	require.NoError(t, err)

	assert.Equal(t, first.Tier, second.Tier)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.StripeSubscriptionID, second.StripeSubscriptionID)
	assert.Equal(t, plan.TierPro, second.Tier)
	assert.True(t, env.settings.states[snowflake.ID(1)])
}

func TestSubscriptionUpdatedToUnknownPriceDisablesManagedSMS(t *testing.T) {
	env := newTestEnv(t)
	env.insertUser(t, 1, "ana@example.com")

	_, err := env.svc.CreateCheckout(context.Background(), snowflake.ID(1), domain.CheckoutRequest{Tier: "pro"})
	require.NoError(t, err)

	env.provider.subscriptions["sub_1"] = &domain.ProviderSubscription{
		ID:         "sub_1",
		CustomerID: "cus_1",
		Status:     "active",
		PriceID:    "price_pro",
	}
	require.NoError(t, env.svc.HandleEvent(context.Background(), domain.ProviderEvent{
		ID: "evt_1", Type: domain.EventCheckoutCompleted, CustomerID: "cus_1", SubscriptionID: "sub_1",
	}))
	require.True(t, env.settings.states[snowflake.ID(1)])

	// The provider now reports a price that maps to no paid tier.
	env.provider.subscriptions["sub_1"].PriceID = "price_legacy"
	require.NoError(t, env.svc.HandleEvent(context.Background(), domain.ProviderEvent{
		ID: "evt_2", Type: domain.EventSubscriptionUpdated, CustomerID: "cus_1", SubscriptionID: "sub_1",
	}))

	sub, err := env.svc.GetOrCreate(context.Background(), snowflake.ID(1))
	require.NoError(t, err)
	assert.Equal(t, plan.TierFree, sub.Tier)
	assert.False(t, env.settings.states[snowflake.ID(1)])
}

func TestSubscriptionDeletedDowngradesToFree(t *testing.T) {
	env := newTestEnv(t)
	env.insertUser(t, 1, "ana@example.com")

	_, err := env.svc.CreateCheckout(context.Background(), snowflake.ID(1), domain.CheckoutRequest{Tier: "pro"})
	require.NoError(t, err)

	env.provider.subscriptions["sub_1"] = &domain.ProviderSubscription{
		ID:         "sub_1",
		CustomerID: "cus_1",
		Status:     "active",
		PriceID:    "price_pro",
	}
	require.NoError(t, env.svc.HandleEvent(context.Background(), domain.ProviderEvent{
		ID: "evt_1", Type: domain.EventCheckoutCompleted, CustomerID: "cus_1", SubscriptionID: "sub_1",
	}))

	require.NoError(t, env.svc.HandleEvent(context.Background(), domain.ProviderEvent{
		ID: "evt_2", Type: domain.EventSubscriptionDeleted, CustomerID: "cus_1", SubscriptionID: "sub_1",
	}))

	sub, err := env.svc.GetOrCreate(context.Background(), snowflake.ID(1))
	require.NoError(t, err)
	assert.Equal(t, plan.TierFree, sub.Tier)
	assert.Equal(t, domain.SubscriptionStatusCanceled, sub.Status)
	assert.Empty(t, sub.StripeSubscriptionID)
	assert.Nil(t, sub.CurrentPeriodEnd)
	// The customer id survives so future checkouts reuse it.
	assert.Equal(t, "cus_1", sub.StripeCustomerID)
	assert.False(t, env.settings.states[snowflake.ID(1)])
}

func TestInvoicePaymentTransitions(t *testing.T) {
	env := newTestEnv(t)
	env.insertUser(t, 1, "ana@example.com")

	_, err := env.svc.CreateCheckout(context.Background(), snowflake.ID(1), domain.CheckoutRequest{Tier: "pro"})
	require.NoError(t, err)

	env.provider.subscriptions["sub_1"] = &domain.ProviderSubscription{
		ID: "sub_1", CustomerID: "cus_1", Status: "active", PriceID: "price_pro",
	}
	require.NoError(t, env.svc.HandleEvent(context.Background(), domain.ProviderEvent{
		ID: "evt_1", Type: domain.EventCheckoutCompleted, CustomerID: "cus_1", SubscriptionID: "sub_1",
	}))

	// Payment failure marks the subscription past due.
	require.NoError(t, env.svc.HandleEvent(context.Background(), domain.ProviderEvent{
		ID: "evt_2", Type: domain.EventInvoicePaymentFailed, CustomerID: "cus_1",
	}))
	sub, err := env.svc.GetOrCreate(context.Background(), snowflake.ID(1))
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusPastDue, sub.Status)

	// A later successful payment recovers it.
	require.NoError(t, env.svc.HandleEvent(context.Background(), domain.ProviderEvent{
		ID: "evt_3", Type: domain.EventInvoicePaymentSucceeded, CustomerID: "cus_1",
	}))
	sub, err = env.svc.GetOrCreate(context.Background(), snowflake.ID(1))
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)

	// Success while already active is a no-op.
	require.NoError(t, env.svc.HandleEvent(context.Background(), domain.ProviderEvent{
		ID: "evt_4", Type: domain.EventInvoicePaymentSucceeded, CustomerID: "cus_1",
	}))
	sub, err = env.svc.GetOrCreate(context.Background(), snowflake.ID(1))
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
}

func TestUnknownCustomerEventIsDropped(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.HandleEvent(context.Background(), domain.ProviderEvent{
		ID:         "evt_ghost",
		Type:       domain.EventSubscriptionUpdated,
		CustomerID: "cus_ghost",
	})
	assert.NoError(t, err)
}

func TestUnknownEventTypeIsAcknowledged(t *testing.T) {
	env := newTestEnv(t)
	env.insertUser(t, 1, "ana@example.com")

	_, err := env.svc.CreateCheckout(context.Background(), snowflake.ID(1), domain.CheckoutRequest{Tier: "pro"})
	require.NoError(t, err)

	err = env.svc.HandleEvent(context.Background(), domain.ProviderEvent{
		ID:         "evt_x",
		Type:       "customer.created",
		CustomerID: "cus_1",
	})
	assert.NoError(t, err)
}
