// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/paging"
	"github.com/dalemusser/communityhub/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// devJWTSecret is only accepted outside production.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// MinJWTSecretLen is the shortest secret accepted in production.
const MinJWTSecretLen = 32

// appConfigKeys defines the configuration keys for Community Hub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: COMMUNITYHUB_MONGO_URI, COMMUNITYHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "community_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HS256 token signing secret (must be strong in production)"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Token lifetime (e.g., 12h, 7d is not valid; use 168h)"},

	{Name: "page_size", Default: paging.PageSize, Desc: "Records per listing page"},
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts per minute per IP and per email"},

	// Dues reminders
	{Name: "reminders_enabled", Default: true, Desc: "Schedule dues reminder emails"},
	{Name: "reminder_schedule", Default: tasks.DefaultReminderSpec, Desc: "Cron spec for dues reminders"},
	{Name: "reminder_window", Default: "72h", Desc: "Remind about payments due within this window"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs emails instead)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@communityhub.local", Desc: "From email address"},

	// Audit trail
	{Name: "audit_auth", Default: "all", Desc: "Sign-in events: all, db, log or off"},
	{Name: "audit_admin", Default: "all", Desc: "Group and permission events: all, db, log or off"},
	{Name: "audit_records", Default: "all", Desc: "Record change events: all, db, log or off"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Base URL for email links"},

	// Database timeouts
	{Name: "db_timeout_ping", Default: "", Desc: "Health check ping timeout"},
	{Name: "db_timeout_short", Default: "", Desc: "Single-document operation timeout"},
	{Name: "db_timeout_medium", Default: "", Desc: "Listing and multi-step operation timeout"},
	{Name: "db_timeout_long", Default: "", Desc: "Export and bulk operation timeout"},
	{Name: "db_timeout_batch", Default: "", Desc: "Background job timeout"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, COMMUNITYHUB_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COMMUNITYHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 24*time.Hour),

		PageSize:       appValues.Int("page_size"),
		LoginRateLimit: appValues.Int("login_rate_limit"),

		RemindersEnabled: appValues.Bool("reminders_enabled"),
		ReminderSchedule: appValues.String("reminder_schedule"),
		ReminderWindow:   appValues.Duration("reminder_window", 72*time.Hour),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),

		AuditAuth:    appValues.String("audit_auth"),
		AuditAdmin:   appValues.String("audit_admin"),
		AuditRecords: appValues.String("audit_records"),

		BaseURL: appValues.String("base_url"),

		DBTimeoutPing:   appValues.Duration("db_timeout_ping", 0),
		DBTimeoutShort:  appValues.Duration("db_timeout_short", 0),
		DBTimeoutMedium: appValues.Duration("db_timeout_medium", 0),
		DBTimeoutLong:   appValues.Duration("db_timeout_long", 0),
		DBTimeoutBatch:  appValues.Duration("db_timeout_batch", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Problems are caught here, before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}
	return validateAppConfig(coreCfg.Env, appCfg)
}

// validateAppConfig holds the checks that do not need WAFFLE's core config.
func validateAppConfig(env string, appCfg AppConfig) error {
	switch {
	case appCfg.JWTSecret == "":
		return fmt.Errorf("jwt_secret is required")
	case env == "prod" && appCfg.JWTSecret == devJWTSecret:
		return fmt.Errorf("jwt_secret must be changed from the development default in production")
	case env == "prod" && len(appCfg.JWTSecret) < MinJWTSecretLen:
		return fmt.Errorf("jwt_secret must be at least %d bytes in production", MinJWTSecretLen)
	case appCfg.JWTTTL <= 0:
		return fmt.Errorf("jwt_ttl must be positive")
	case appCfg.PageSize < 1 || appCfg.PageSize > paging.MaxPageSize:
		return fmt.Errorf("page_size must be between 1 and %d", paging.MaxPageSize)
	case appCfg.LoginRateLimit < 1:
		return fmt.Errorf("login_rate_limit must be at least 1")
	case appCfg.MailSMTPHost != "" && (appCfg.MailSMTPPort < 1 || appCfg.MailSMTPPort > 65535):
		return fmt.Errorf("mail_smtp_port %d is out of range", appCfg.MailSMTPPort)
	}
	for key, mode := range map[string]string{
		"audit_auth":    appCfg.AuditAuth,
		"audit_admin":   appCfg.AuditAdmin,
		"audit_records": appCfg.AuditRecords,
	} {
		if mode != "" && !auditlog.ValidMode(mode) {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, mode)
		}
	}
	if appCfg.RemindersEnabled {
		if _, err := cron.ParseStandard(appCfg.ReminderSchedule); err != nil {
			return fmt.Errorf("invalid reminder_schedule %q: %w", appCfg.ReminderSchedule, err)
		}
		if appCfg.ReminderWindow <= 0 {
			return fmt.Errorf("reminder_window must be positive")
		}
	}
	return nil
}
