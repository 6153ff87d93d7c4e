package service

import (
	"context"
	"time"

	authdomain "github.com/autoremind/autoremind/internal/auth/domain"
	"github.com/autoremind/autoremind/internal/config"
	"github.com/autoremind/autoremind/internal/plan"
	settingsdomain "github.com/autoremind/autoremind/internal/settings/domain"
	"github.com/autoremind/autoremind/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Cfg         config.Config
	Repo        domain.Repository
	AuthRepo    authdomain.Repository
	SettingsSvc settingsdomain.Service
	Provider    domain.Provider `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	cfg         config.Config
	repo        domain.Repository
	authRepo    authdomain.Repository
	settingsSvc settingsdomain.Service
	provider    domain.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("subscription.service"),
		genID:       p.GenID,
		cfg:         p.Cfg,
		repo:        p.Repo,
		authRepo:    p.AuthRepo,
		settingsSvc: p.SettingsSvc,
		provider:    p.Provider,
	}
}

func (s *Service) GetOrCreate(ctx context.Context, userID snowflake.ID) (*domain.Subscription, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	existing, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	subscription := &domain.Subscription{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Tier:      plan.TierFree,
		Status:    domain.SubscriptionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertIfAbsent(ctx, s.db, subscription); err != nil {
		return nil, err
	}

	// Re-read so a concurrent creator's row wins consistently.
	return s.repo.FindByUserID(ctx, s.db, userID)
}

func (s *Service) CreateCheckout(ctx context.Context, userID snowflake.ID, req domain.CheckoutRequest) (string, error) {
	if s.provider == nil {
		return "", domain.ErrBillingNotConfigured
	}

	priceID := s.priceForTier(plan.ParseTier(req.Tier))
	if priceID == "" {
		return "", domain.ErrBillingNotConfigured
	}

	subscription, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return "", err
	}
	if subscription.Tier != plan.TierFree && subscription.Status != domain.SubscriptionStatusCanceled {
		return "", domain.ErrAlreadySubscribed
	}

	if subscription.StripeCustomerID == "" {
		user, err := s.authRepo.FindUserByID(ctx, s.db, userID)
		if err != nil {
			return "", err
		}
		if user == nil {
			return "", domain.ErrInvalidTenant
		}
		customerID, err := s.provider.CreateCustomer(ctx, user.Email, user.DisplayName)
		if err != nil {
			return "", err
		}
		subscription.StripeCustomerID = customerID
		subscription.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, s.db, subscription); err != nil {
			return "", err
		}
	}

	return s.provider.CreateCheckoutSession(ctx, subscription.StripeCustomerID, priceID, req.SuccessURL, req.CancelURL)
}

func (s *Service) CreatePortal(ctx context.Context, userID snowflake.ID, returnURL string) (string, error) {
	if s.provider == nil {
		return "", domain.ErrBillingNotConfigured
	}

	subscription, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return "", err
	}
	if subscription.StripeCustomerID == "" {
		return "", domain.ErrNotSubscribed
	}
	return s.provider.CreateBillingPortalSession(ctx, subscription.StripeCustomerID, returnURL)
}

func (s *Service) ChangePlan(ctx context.Context, userID snowflake.ID, tier string) (*domain.Subscription, error) {
	if s.provider == nil {
		return nil, domain.ErrBillingNotConfigured
	}

	priceID := s.priceForTier(plan.ParseTier(tier))
	if priceID == "" {
		return nil, domain.ErrBillingNotConfigured
	}

	subscription, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if subscription.StripeSubscriptionID == "" {
		return nil, domain.ErrNotSubscribed
	}

	updated, err := s.provider.UpdateSubscriptionPrice(ctx, subscription.StripeSubscriptionID, priceID)
	if err != nil {
		return nil, err
	}

	return s.syncFromProvider(ctx, subscription, updated)
}

// HandleEvent dispatches one webhook transition. Unknown event types are
// acknowledged without action so the provider does not retry them.
func (s *Service) HandleEvent(ctx context.Context, event domain.ProviderEvent) error {
	log := s.log.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("customer_id", event.CustomerID),
	)

	subscription, err := s.repo.FindByCustomerID(ctx, s.db, event.CustomerID)
	if err != nil {
		return err
	}
	if subscription == nil {
		// Retrying cannot make an unknown customer appear, so drop the
		// event instead of surfacing an error to the webhook caller.
		log.Warn("webhook event for unknown customer dropped")
		return nil
	}

	switch event.Type {
	case domain.EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, subscription, event)
	case domain.EventSubscriptionUpdated:
		return s.handleSubscriptionUpdated(ctx, subscription, event)
	case domain.EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, subscription)
	case domain.EventInvoicePaymentSucceeded:
		return s.handleInvoicePaymentSucceeded(ctx, subscription)
	case domain.EventInvoicePaymentFailed:
		return s.handleInvoicePaymentFailed(ctx, subscription)
	default:
		log.Info("ignoring unhandled webhook event type")
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, subscription *domain.Subscription, event domain.ProviderEvent) error {
	fetched, err := s.provider.RetrieveSubscription(ctx, event.SubscriptionID)
	if err != nil {
		return err
	}

	synced, err := s.syncFromProvider(ctx, subscription, fetched)
	if err != nil {
		return err
	}

	// Checkout only ever grants entitlements; the free case is handled by
	// explicit subscription-updated/deleted events.
	if plan.ManagedSMSEligible(synced.Tier) {
		return s.settingsSvc.SetManagedSMS(ctx, synced.UserID, true)
	}
	return nil
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, subscription *domain.Subscription, event domain.ProviderEvent) error {
	fetched, err := s.provider.RetrieveSubscription(ctx, event.SubscriptionID)
	if err != nil {
		return err
	}

	synced, err := s.syncFromProvider(ctx, subscription, fetched)
	if err != nil {
		return err
	}

	if plan.ManagedSMSEligible(synced.Tier) {
		return s.settingsSvc.SetManagedSMS(ctx, synced.UserID, true)
	}
	return s.settingsSvc.SetManagedSMS(ctx, synced.UserID, false)
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, subscription *domain.Subscription) error {
	now := time.Now().UTC()
	subscription.Tier = plan.TierFree
	subscription.Status = domain.SubscriptionStatusCanceled
	subscription.StripeSubscriptionID = ""
	subscription.StripePriceID = ""
	subscription.CurrentPeriodEnd = nil
	subscription.CancelAtPeriodEnd = false
	subscription.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, subscription); err != nil {
		return err
	}
	return s.settingsSvc.SetManagedSMS(ctx, subscription.UserID, false)
}

func (s *Service) handleInvoicePaymentSucceeded(ctx context.Context, subscription *domain.Subscription) error {
	if subscription.Status != domain.SubscriptionStatusPastDue {
		return nil
	}
	subscription.Status = domain.SubscriptionStatusActive
	subscription.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, s.db, subscription)
}

func (s *Service) handleInvoicePaymentFailed(ctx context.Context, subscription *domain.Subscription) error {
	subscription.Status = domain.SubscriptionStatusPastDue
	subscription.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, s.db, subscription)
}

// syncFromProvider re-derives the local row from the provider's view of the
// subscription and persists it. The write is the last step so an upstream
// lookup failure never leaves a partial local mutation.
func (s *Service) syncFromProvider(ctx context.Context, subscription *domain.Subscription, fetched *domain.ProviderSubscription) (*domain.Subscription, error) {
	tier := s.tierForPrice(fetched.PriceID)

	// Period end comes from the latest invoice, best effort: a lookup
	// failure leaves it null rather than failing the whole transition.
	var periodEnd *time.Time
	if fetched.LatestInvoiceID != "" {
		invoice, err := s.provider.RetrieveInvoice(ctx, fetched.LatestInvoiceID)
		if err != nil {
			s.log.Warn("invoice lookup for period end failed",
				zap.String("invoice_id", fetched.LatestInvoiceID),
				zap.Error(err),
			)
		} else if invoice != nil {
			periodEnd = invoice.PeriodEnd
		}
	}

	subscription.Tier = tier
	subscription.Status = mapProviderStatus(fetched.Status)
	subscription.StripeSubscriptionID = fetched.ID
	subscription.StripePriceID = fetched.PriceID
	subscription.CurrentPeriodEnd = periodEnd
	subscription.CancelAtPeriodEnd = fetched.CancelAtPeriodEnd
	subscription.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, subscription); err != nil {
		return nil, err
	}
	return subscription, nil
}

// tierForPrice maps an external price identifier to an internal tier by
// exact string match. No match defaults to free.
func (s *Service) tierForPrice(priceID string) plan.Tier {
	switch {
	case priceID != "" && priceID == s.cfg.StripePriceStarter:
		return plan.TierStarter
	case priceID != "" && priceID == s.cfg.StripePricePro:
		return plan.TierPro
	default:
		return plan.TierFree
	}
}

func (s *Service) priceForTier(tier plan.Tier) string {
	switch tier {
	case plan.TierStarter:
		return s.cfg.StripePriceStarter
	case plan.TierPro:
		return s.cfg.StripePricePro
	default:
		return ""
	}
}

func mapProviderStatus(raw string) domain.SubscriptionStatus {
	switch raw {
	case "past_due", "unpaid":
		return domain.SubscriptionStatusPastDue
	case "canceled", "incomplete_expired":
		return domain.SubscriptionStatusCanceled
	default:
		return domain.SubscriptionStatusActive
	}
}
