package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/autoremind/autoremind/internal/auth"
	authdomain "github.com/autoremind/autoremind/internal/auth/domain"
	"github.com/autoremind/autoremind/internal/auth/session"
	"github.com/autoremind/autoremind/internal/client"
	clientdomain "github.com/autoremind/autoremind/internal/client/domain"
	"github.com/autoremind/autoremind/internal/config"
	"github.com/autoremind/autoremind/internal/lock"
	paymentsstripe "github.com/autoremind/autoremind/internal/payments/stripe"
	"github.com/autoremind/autoremind/internal/reminder"
	"github.com/autoremind/autoremind/internal/secrets"
	"github.com/autoremind/autoremind/internal/settings"
	settingsdomain "github.com/autoremind/autoremind/internal/settings/domain"
	"github.com/autoremind/autoremind/internal/sms"
	smsdomain "github.com/autoremind/autoremind/internal/sms/domain"
	"github.com/autoremind/autoremind/internal/subscription"
	subscriptiondomain "github.com/autoremind/autoremind/internal/subscription/domain"
)

var Module = fx.Module("http.server",
	config.Module,
	secrets.Module,
	auth.Module,
	session.Module,
	client.Module,
	settings.Module,
	sms.Module,
	subscription.Module,
	paymentsstripe.Module,
	lock.Module,
	reminder.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	log             *zap.Logger
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	authsvc         authdomain.Service
	sessions        *session.Manager
	clientSvc       clientdomain.Service
	settingsSvc     settingsdomain.Service
	smsSvc          smsdomain.Service
	subscriptionSvc subscriptiondomain.Service
	webhook         *paymentsstripe.Webhook
	dispatcher      *reminder.Dispatcher
	reminderCfg     *config.ReminderConfigHolder
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Log             *zap.Logger
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	Authsvc         authdomain.Service
	Sessions        *session.Manager
	ClientSvc       clientdomain.Service
	SettingsSvc     settingsdomain.Service
	SMSSvc          smsdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	Webhook         *paymentsstripe.Webhook
	Dispatcher      *reminder.Dispatcher
	ReminderCfg     *config.ReminderConfigHolder
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		log:             p.Log.Named("server"),
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		authsvc:         p.Authsvc,
		sessions:        p.Sessions,
		clientSvc:       p.ClientSvc,
		settingsSvc:     p.SettingsSvc,
		smsSvc:          p.SMSSvc,
		subscriptionSvc: p.SubscriptionSvc,
		webhook:         p.Webhook,
		dispatcher:      p.Dispatcher,
		reminderCfg:     p.ReminderCfg,
	}

	if svc.cfg.CronSecret == "" {
		svc.log.Warn("CRON_SECRET is not set; GET /cron/reminders accepts unauthenticated requests")
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()
	svc.registerCronRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
	auth.DELETE("/account", s.AuthRequired(), s.DeleteAccount)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1", s.AuthRequired())

	api.GET("/clients", s.ListClients)
	api.POST("/clients", s.CreateClient)
	api.GET("/clients/:id", s.GetClient)
	api.PATCH("/clients/:id", s.UpdateClient)
	api.DELETE("/clients/:id", s.DeleteClient)
	api.POST("/clients/bulk-delete", s.BulkDeleteClients)
	api.POST("/clients/:id/send", s.SendClientReminder)
	api.POST("/clients/import", s.ImportClients)
	api.GET("/clients/export", s.ExportClients)

	api.GET("/settings", s.GetSettings)
	api.PUT("/settings", s.UpdateSettings)
	api.POST("/settings/test-sms", s.SendTestSMS)

	api.GET("/billing/subscription", s.GetSubscription)
	api.POST("/billing/checkout", s.CreateCheckout)
	api.POST("/billing/portal", s.CreatePortal)
	api.POST("/billing/change-plan", s.ChangePlan)
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/payments/webhook", s.HandleBillingWebhook)
}

func (s *Server) registerCronRoutes() {
	s.engine.GET("/cron/reminders", s.RunReminderDispatch)
}
