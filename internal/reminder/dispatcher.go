package reminder

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	authdomain "github.com/autoremind/autoremind/internal/auth/domain"
	clientdomain "github.com/autoremind/autoremind/internal/client/domain"
	"github.com/autoremind/autoremind/internal/clock"
	"github.com/autoremind/autoremind/internal/config"
	"github.com/autoremind/autoremind/internal/metrics"
	settingsdomain "github.com/autoremind/autoremind/internal/settings/domain"
	smsdomain "github.com/autoremind/autoremind/internal/sms/domain"
)

// DispatchEntry is the outcome of one attempted reminder send.
type DispatchEntry struct {
	TenantID   snowflake.ID `json:"tenant"`
	RecordID   snowflake.ID `json:"record"`
	ClientName string       `json:"client_name"`
	Phone      string       `json:"phone"`
	Success    bool         `json:"success"`
	MessageID  string       `json:"message_id,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// DispatchReport summarizes one dispatch run across all tenants.
type DispatchReport struct {
	AsOf    time.Time       `json:"as_of"`
	Tenants int             `json:"tenants"`
	Sent    int             `json:"sent"`
	Failed  int             `json:"failed"`
	Entries []DispatchEntry `json:"results"`
}

type DispatcherParams struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Auth        authdomain.Service
	ClientRepo  clientdomain.Repository
	Settings    settingsdomain.Service
	SMS         smsdomain.Service
	ReminderCfg *config.ReminderConfigHolder
	Clock       clock.Clock
}

// Dispatcher scans every tenant for due reminders and sends them. One
// tenant's failure never blocks the others.
type Dispatcher struct {
	db          *gorm.DB
	log         *zap.Logger
	auth        authdomain.Service
	clientRepo  clientdomain.Repository
	settings    settingsdomain.Service
	sms         smsdomain.Service
	reminderCfg *config.ReminderConfigHolder
	clock       clock.Clock
	metrics     *metrics.Metrics
}

func NewDispatcher(p DispatcherParams) *Dispatcher {
	return &Dispatcher{
		db:          p.DB,
		log:         p.Log.Named("reminder.dispatcher"),
		auth:        p.Auth,
		clientRepo:  p.ClientRepo,
		settings:    p.Settings,
		sms:         p.SMS,
		reminderCfg: p.ReminderCfg,
		clock:       p.Clock,
		metrics:     metrics.Default(),
	}
}

// Run executes one dispatch pass as of the clock's current time.
func (d *Dispatcher) Run(ctx context.Context) (*DispatchReport, error) {
	return d.RunAt(ctx, d.clock.Now())
}

// RunAt executes one dispatch pass for an explicit point in time. Sends
// happen before the sent flag is persisted, so a crash between the two can
// duplicate a message but never lose one.
func (d *Dispatcher) RunAt(ctx context.Context, asOf time.Time) (*DispatchReport, error) {
	started := d.clock.Now()
	d.metrics.IncDispatchRun()

	report := &DispatchReport{AsOf: asOf, Entries: []DispatchEntry{}}

	tenantIDs, err := d.auth.ListTenantIDs(ctx)
	if err != nil {
		return nil, err
	}
	report.Tenants = len(tenantIDs)

	cfg := d.reminderCfg.Get()
	for _, tenantID := range tenantIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := d.runTenant(ctx, tenantID, asOf, cfg, report); err != nil {
			d.log.Error("tenant dispatch failed",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}

	d.metrics.ObserveDispatchDuration(d.clock.Now().Sub(started))
	d.log.Info("dispatch run finished",
		zap.Time("as_of", asOf),
		zap.Int("tenants", report.Tenants),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (d *Dispatcher) runTenant(ctx context.Context, tenantID snowflake.ID, asOf time.Time, cfg config.ReminderConfig, report *DispatchReport) error {
	settings, err := d.settings.GetOrCreate(ctx, tenantID)
	if err != nil {
		return err
	}

	leadDays := settings.ReminderLeadDays
	if leadDays < 1 {
		leadDays = cfg.DefaultLeadDays
	}
	template := settings.MessageTemplate
	if template == "" {
		template = cfg.DefaultMessageTemplate
	}

	until := dateOnly(asOf).AddDate(0, 0, leadDays)
	due, err := d.clientRepo.ListDue(ctx, d.db, tenantID, until)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	sent := 0
	for _, record := range due {
		if cfg.MaxDispatchPerRun > 0 && sent >= cfg.MaxDispatchPerRun {
			d.log.Warn("per-run dispatch cap reached",
				zap.String("tenant_id", tenantID.String()),
				zap.Int("cap", cfg.MaxDispatchPerRun),
			)
			break
		}

		entry := d.sendOne(ctx, settings, template, record)
		report.Entries = append(report.Entries, entry)
		if entry.Success {
			report.Sent++
			sent++
		} else {
			report.Failed++
		}
	}
	return nil
}

func (d *Dispatcher) sendOne(ctx context.Context, settings *settingsdomain.TenantSettings, template string, record clientdomain.ClientRecord) DispatchEntry {
	entry := DispatchEntry{
		TenantID:   record.UserID,
		RecordID:   record.ID,
		ClientName: record.Name,
		Phone:      record.Phone,
	}

	message := RenderTemplate(template, TemplateData{
		ClientName:      record.Name,
		Resource:        record.Resource,
		Date:            record.ReminderDate.Format("2006-01-02"),
		BusinessName:    settings.BusinessName,
		BusinessContact: settings.BusinessContact,
	})

	result, sendErr := d.sms.Send(ctx, record.UserID, record.Phone, message)
	if sendErr != nil {
		d.metrics.IncReminderFailed(string(sendErr.Category))
		entry.Error = sendErr.Error()
		return entry
	}

	entry.Success = true
	entry.MessageID = result.MessageID
	d.metrics.IncReminderSent()

	marked, err := d.clientRepo.MarkSent(ctx, d.db, record.UserID, record.ID)
	if err != nil {
		d.log.Error("failed to mark reminder sent",
			zap.String("record_id", record.ID.String()),
			zap.Error(err),
		)
	} else if !marked {
		d.log.Warn("reminder already marked sent",
			zap.String("record_id", record.ID.String()),
		)
	}
	return entry
}

// dateOnly drops the time of day; reminder windows key on calendar dates.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
