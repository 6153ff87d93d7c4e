package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/autoremind/autoremind/internal/client/domain"
	"github.com/autoremind/autoremind/internal/plan"
	subscriptiondomain "github.com/autoremind/autoremind/internal/subscription/domain"
	"github.com/autoremind/autoremind/pkg/phone"
	"github.com/autoremind/autoremind/pkg/tenantctx"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          domain.Repository
	Subscriptions subscriptiondomain.Service
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          domain.Repository
	subscriptions subscriptiondomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("client.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		subscriptions: p.Subscriptions,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.ClientRecord, error) {
	userID, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, s.db, userID)
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.ClientRecord, error) {
	userID, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrRecordNotFound
	}
	return record, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.ClientRecord, error) {
	userID, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.buildRecord(userID, req.Name, req.Phone, req.Resource, req.ReminderDate)
	if err != nil {
		return nil, err
	}

	tier, err := s.tenantTier(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.Count(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if !plan.CanAddClient(int(count), tier) {
		return nil, domain.ErrPlanLimitReached
	}

	if err := s.repo.Insert(ctx, s.db, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest) (*domain.ClientRecord, error) {
	userID, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrRecordNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		record.Name = name
	}
	if req.Phone != nil {
		normalized := phone.Normalize(*req.Phone)
		if normalized == "" {
			return nil, domain.ErrInvalidPhone
		}
		record.Phone = normalized
	}
	if req.Resource != nil {
		record.Resource = strings.TrimSpace(*req.Resource)
	}
	if req.ReminderDate != nil {
		if req.ReminderDate.IsZero() {
			return nil, domain.ErrInvalidDate
		}
		// Rescheduling re-arms the reminder so the new date fires again.
		next := dateOnly(*req.ReminderDate)
		if !next.Equal(record.ReminderDate) {
			record.ReminderDate = next
			record.ReminderSent = false
		}
	}
	record.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	userID, err := s.tenant(ctx)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, userID, id)
}

func (s *Service) DeleteMany(ctx context.Context, ids []snowflake.ID) (int64, error) {
	userID, err := s.tenant(ctx)
	if err != nil {
		return 0, err
	}
	return s.repo.DeleteMany(ctx, s.db, userID, ids)
}

// Import commits valid rows one by one and reports the rest as skipped. The
// plan limit is enforced as rows commit, so a file that crosses the limit
// imports up to it and skips the remainder.
func (s *Service) Import(ctx context.Context, rows []domain.ImportRow) (domain.ImportResult, error) {
	var result domain.ImportResult

	userID, err := s.tenant(ctx)
	if err != nil {
		return result, err
	}
	tier, err := s.tenantTier(ctx, userID)
	if err != nil {
		return result, err
	}
	count, err := s.repo.Count(ctx, s.db, userID)
	if err != nil {
		return result, err
	}

	for i, row := range rows {
		record, err := s.buildRecord(userID, row.Name, row.Phone, row.Resource, row.ReminderDate)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if !plan.CanAddClient(int(count), tier) {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, domain.ErrPlanLimitReached))
			continue
		}
		if err := s.repo.Insert(ctx, s.db, record); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		count++
		result.Imported++
	}

	s.log.Info("bulk import finished",
		zap.String("user_id", userID.String()),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *Service) MarkSent(ctx context.Context, id snowflake.ID) (bool, error) {
	userID, err := s.tenant(ctx)
	if err != nil {
		return false, err
	}
	return s.repo.MarkSent(ctx, s.db, userID, id)
}

func (s *Service) tenant(ctx context.Context) (snowflake.ID, error) {
	userID, ok := tenantctx.TenantID(ctx)
	if !ok || userID == 0 {
		return 0, domain.ErrInvalidTenant
	}
	return userID, nil
}

func (s *Service) tenantTier(ctx context.Context, userID snowflake.ID) (plan.Tier, error) {
	sub, err := s.subscriptions.GetOrCreate(ctx, userID)
	if err != nil {
		return "", err
	}
	return sub.Tier, nil
}

func (s *Service) buildRecord(userID snowflake.ID, name, rawPhone, resource string, reminderDate time.Time) (*domain.ClientRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	normalized := phone.Normalize(rawPhone)
	if normalized == "" {
		return nil, domain.ErrInvalidPhone
	}
	if reminderDate.IsZero() {
		return nil, domain.ErrInvalidDate
	}

	now := time.Now().UTC()
	return &domain.ClientRecord{
		ID:           s.genID.Generate(),
		UserID:       userID,
		Name:         name,
		Phone:        normalized,
		Resource:     strings.TrimSpace(resource),
		ReminderDate: dateOnly(reminderDate),
		ReminderSent: false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// dateOnly drops the time of day; reminders key on calendar dates.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
