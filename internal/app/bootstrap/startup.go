// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/communityhub/internal/app/features/reminders"
	"github.com/dalemusser/communityhub/internal/app/store/audit"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/mailer"
	"github.com/dalemusser/communityhub/internal/app/system/metrics"
	"github.com/dalemusser/communityhub/internal/app/system/paging"
	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"github.com/dalemusser/communityhub/internal/app/system/tasks"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are the long-lived objects shared by BuildHandler and Shutdown.
// WAFFLE passes DBDeps by value, so they are kept here rather than there.
type services struct {
	metrics   *metrics.Metrics
	tokens    *auth.TokenManager
	limiter   *ratelimit.LoginLimiter
	audit     *auditlog.Logger
	reminders *reminders.Service
	scheduler *tasks.Scheduler
}

var (
	svcMu sync.Mutex
	svc   *services
)

// Startup applies runtime settings and starts background work. It runs after
// DB connections and schema setup, before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.DBTimeoutPing,
		Short:  appCfg.DBTimeoutShort,
		Medium: appCfg.DBTimeoutMedium,
		Long:   appCfg.DBTimeoutLong,
		Batch:  appCfg.DBTimeoutBatch,
	})
	paging.SetPageSize(appCfg.PageSize)

	s, err := newServices(appCfg, deps, logger)
	if err != nil {
		return err
	}
	if appCfg.RemindersEnabled {
		s.scheduler = tasks.NewScheduler(logger)
		if err := s.scheduler.Add(tasks.DuesReminderJob(s.reminders, appCfg.ReminderSchedule, logger)); err != nil {
			s.limiter.Stop()
			return err
		}
		s.scheduler.Start()
	}

	svcMu.Lock()
	svc = s
	svcMu.Unlock()

	cur := timeouts.Current()
	logger.Info("startup complete",
		zap.Int("page_size", paging.Size()),
		zap.Duration("db_timeout_short", cur.Short),
		zap.Duration("db_timeout_medium", cur.Medium),
		zap.Bool("reminders", appCfg.RemindersEnabled))
	return nil
}

func newServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTTTL, logger)
	if err != nil {
		return nil, err
	}
	m := metrics.New()
	sender := mailer.New(mailer.Config{
		Host: appCfg.MailSMTPHost,
		Port: appCfg.MailSMTPPort,
		User: appCfg.MailSMTPUser,
		Pass: appCfg.MailSMTPPass,
		From: appCfg.MailFrom,
	}, logger)
	auditLog := auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:    appCfg.AuditAuth,
		Admin:   appCfg.AuditAdmin,
		Records: appCfg.AuditRecords,
	})

	return &services{
		metrics:   m,
		tokens:    tokens,
		limiter:   ratelimit.NewLoginLimiter(appCfg.LoginRateLimit),
		audit:     auditLog,
		reminders: reminders.NewService(deps.MongoDatabase, sender, m, appCfg.ReminderWindow, appCfg.BaseURL, logger),
	}, nil
}

// current returns the services built by Startup, building them on first
// use when Startup did not run.
func current(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	svcMu.Lock()
	defer svcMu.Unlock()
	if svc != nil {
		return svc, nil
	}
	s, err := newServices(appCfg, deps, logger)
	if err != nil {
		return nil, err
	}
	svc = s
	return s, nil
}
