// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (COMMUNITYHUB_*),
// configuration files, or command-line flags (loaded in LoadConfig).
// WAFFLE's CoreConfig covers ports, TLS, log level and CORS; everything
// specific to Community Hub lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens
	JWTSecret string        // HS256 signing secret (at least 32 bytes in production)
	JWTTTL    time.Duration // token lifetime

	// Listings
	PageSize int // records per listing page

	// Login attempts allowed per minute, per client IP and per email
	LoginRateLimit int

	// Dues reminders
	RemindersEnabled bool
	ReminderSchedule string        // cron spec, e.g. "0 8 * * *"
	ReminderWindow   time.Duration // how far ahead a due date triggers a reminder

	// Email/SMTP configuration (blank host logs emails instead of sending)
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string

	// Audit trail destinations per category: all, db, log or off
	AuditAuth    string
	AuditAdmin   string
	AuditRecords string

	// Base URL for links in emails
	BaseURL string

	// Database operation timeouts (zero keeps the default)
	DBTimeoutPing   time.Duration
	DBTimeoutShort  time.Duration
	DBTimeoutMedium time.Duration
	DBTimeoutLong   time.Duration
	DBTimeoutBatch  time.Duration
}
