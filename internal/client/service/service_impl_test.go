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

	"github.com/autoremind/autoremind/internal/client/domain"
	"github.com/autoremind/autoremind/internal/client/repository"
	clientservice "github.com/autoremind/autoremind/internal/client/service"
	"github.com/autoremind/autoremind/internal/plan"
	subscriptiondomain "github.com/autoremind/autoremind/internal/subscription/domain"
	"github.com/autoremind/autoremind/pkg/tenantctx"
)

type fakeSubscriptions struct {
	tier plan.Tier
}

func (f *fakeSubscriptions) GetOrCreate(_ context.Context, userID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return &subscriptiondomain.Subscription{
		UserID: userID,
		Tier:   f.tier,
		Status: subscriptiondomain.SubscriptionStatusActive,
	}, nil
}

func (f *fakeSubscriptions) CreateCheckout(context.Context, snowflake.ID, subscriptiondomain.CheckoutRequest) (string, error) {
	return "", nil
}

func (f *fakeSubscriptions) CreatePortal(context.Context, snowflake.ID, string) (string, error) {
	return "", nil
}

func (f *fakeSubscriptions) ChangePlan(context.Context, snowflake.ID, string) (*subscriptiondomain.Subscription, error) {
	return nil, nil
}

func (f *fakeSubscriptions) HandleEvent(context.Context, subscriptiondomain.ProviderEvent) error {
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_client_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	err = db.Exec(`CREATE TABLE client_records (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		resource TEXT,
		reminder_date DATE NOT NULL,
		reminder_sent BOOLEAN NOT NULL DEFAULT FALSE,
		metadata TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`).Error
	if err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func newService(t *testing.T, db *gorm.DB, tier plan.Tier) domain.Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return clientservice.New(clientservice.Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Repo:          repository.Provide(),
		Subscriptions: &fakeSubscriptions{tier: tier},
	})
}

func tenantCtx(userID int64) context.Context {
	return tenantctx.WithTenantID(context.Background(), snowflake.ID(userID))
}

func TestCreateNormalizesPhone(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, plan.TierFree)
	ctx := tenantCtx(1)

	record, err := svc.Create(ctx, domain.CreateRequest{
		Name:         "Ana Silva",
		Phone:        "912345678",
		Resource:     "Toyota Corolla",
		ReminderDate: time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "+351912345678", record.Phone)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), record.ReminderDate)
	assert.False(t, record.ReminderSent)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, plan.TierFree)
	ctx := tenantCtx(1)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(ctx, domain.CreateRequest{Name: "  ", Phone: "912345678", ReminderDate: date})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Ana", Phone: "   ", ReminderDate: date})
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Ana", Phone: "912345678"})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = svc.Create(context.Background(), domain.CreateRequest{Name: "Ana", Phone: "912345678", ReminderDate: date})
	assert.ErrorIs(t, err, domain.ErrInvalidTenant)
}

func TestCreateEnforcesPlanLimit(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, plan.TierFree)
	ctx := tenantCtx(1)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		_, err := svc.Create(ctx, domain.CreateRequest{
			Name:         fmt.Sprintf("Client %d", i),
			Phone:        "912345678",
			ReminderDate: date,
		})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, domain.CreateRequest{Name: "One Too Many", Phone: "912345678", ReminderDate: date})
	assert.ErrorIs(t, err, domain.ErrPlanLimitReached)

	// The same tenant on a paid tier is not blocked.
	paid := newService(t, db, plan.TierPro)
	_, err = paid.Create(ctx, domain.CreateRequest{Name: "Pro Client", Phone: "912345678", ReminderDate: date})
	assert.NoError(t, err)
}

func TestUpdateRescheduleResetsSentFlag(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, plan.TierFree)
	ctx := tenantCtx(1)

	record, err := svc.Create(ctx, domain.CreateRequest{
		Name:         "Ana",
		Phone:        "912345678",
		ReminderDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&domain.ClientRecord{}).
		Where("id = ?", record.ID).
		Update("reminder_sent", true).Error)

	// Touching other fields keeps the sent flag.
	newName := "Ana Silva"
	updated, err := svc.Update(ctx, record.ID, domain.UpdateRequest{Name: &newName})
	require.NoError(t, err)
	assert.True(t, updated.ReminderSent)

	// Moving the date re-arms the reminder.
	nextDate := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
	updated, err = svc.Update(ctx, record.ID, domain.UpdateRequest{ReminderDate: &nextDate})
	require.NoError(t, err)
	assert.False(t, updated.ReminderSent)
	assert.Equal(t, nextDate, updated.ReminderDate)

	// Re-saving the same date does not re-arm.
	require.NoError(t, db.Model(&domain.ClientRecord{}).
		Where("id = ?", record.ID).
		Update("reminder_sent", true).Error)
	updated, err = svc.Update(ctx, record.ID, domain.UpdateRequest{ReminderDate: &nextDate})
	require.NoError(t, err)
	assert.True(t, updated.ReminderSent)
}

func TestTenantIsolation(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, plan.TierFree)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	record, err := svc.Create(tenantCtx(1), domain.CreateRequest{Name: "Ana", Phone: "912345678", ReminderDate: date})
	require.NoError(t, err)

	_, err = svc.Get(tenantCtx(2), record.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	err = svc.Delete(tenantCtx(2), record.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	records, err := svc.List(tenantCtx(2))
	require.NoError(t, err)
	assert.Empty(t, records)

	got, err := svc.Get(tenantCtx(1), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
}

func TestDeleteMany(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, plan.TierFree)
	ctx := tenantCtx(1)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	var ids []snowflake.ID
	for i := 0; i < 3; i++ {
		record, err := svc.Create(ctx, domain.CreateRequest{
			Name:         fmt.Sprintf("Client %d", i),
			Phone:        "912345678",
			ReminderDate: date,
		})
		require.NoError(t, err)
		ids = append(ids, record.ID)
	}

	deleted, err := svc.DeleteMany(ctx, ids[:2])
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	records, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestImportSkipsBadRowsAndHonorsLimit(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, plan.TierFree)
	ctx := tenantCtx(1)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 48; i++ {
		_, err := svc.Create(ctx, domain.CreateRequest{
			Name:         fmt.Sprintf("Existing %d", i),
			Phone:        "912345678",
			ReminderDate: date,
		})
		require.NoError(t, err)
	}

	rows := []domain.ImportRow{
		{Name: "Good One", Phone: "912345678", ReminderDate: date},
		{Name: "", Phone: "912345678", ReminderDate: date},
		{Name: "Good Two", Phone: "935555555", ReminderDate: date},
		{Name: "Over Limit", Phone: "912345678", ReminderDate: date},
	}

	result, err := svc.Import(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "row 2")
	assert.Contains(t, result.Errors[1], "row 4")
	assert.Contains(t, result.Errors[1], "plan_limit_reached")

	count := int64(0)
	require.NoError(t, db.Model(&domain.ClientRecord{}).Count(&count).Error)
	assert.Equal(t, int64(50), count)
}
