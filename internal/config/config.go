package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`
	LogMode string `env:"LOG_MODE" envDefault:"dev"`

	// PublicBaseURL is the externally reachable URL of this API,
	// used when building links that end up in emails.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	DatabaseDSN string `env:"DATABASE_DSN,notEmpty"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	LineChannelID     string `env:"LINE_CHANNEL_ID"`
	LineChannelSecret string `env:"LINE_CHANNEL_SECRET"`
	LineRedirectURL   string `env:"LINE_REDIRECT_URL"`

	// Canonical origins for the three cooperating front ends. The
	// reconciler routes sessions between them, so these are explicit
	// configuration rather than inferred from request hosts.
	AdminOrigin     string `env:"ADMIN_ORIGIN" envDefault:"http://localhost:3002"`
	OrganizerOrigin string `env:"ORGANIZER_ORIGIN" envDefault:"http://localhost:3000"`
	ExhibitorOrigin string `env:"EXHIBITOR_ORIGIN" envDefault:"http://localhost:3001"`

	LoginPath string `env:"LOGIN_PATH" envDefault:"/login"`

	// Accounts allowed to use the admin surface.
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// __Host- cookies require Secure; disable only for local HTTP.
	SecureCookies bool `env:"SECURE_COOKIES" envDefault:"true"`

	// Session establishment after an OAuth redirect is asynchronous,
	// so the reconciler waits with a bounded poll.
	ReconcilePollInterval time.Duration `env:"RECONCILE_POLL_INTERVAL" envDefault:"500ms"`
	ReconcilePollAttempts int           `env:"RECONCILE_POLL_ATTEMPTS" envDefault:"10"`

	MagicLinkTTL time.Duration `env:"MAGIC_LINK_TTL" envDefault:"15m"`

	MailAPIKey    string `env:"MAIL_API_KEY"`
	MailBaseURL   string `env:"MAIL_BASE_URL" envDefault:"https://api.sendgrid.com"`
	MailFromEmail string `env:"MAIL_FROM_EMAIL"`
	MailFromName  string `env:"MAIL_FROM_NAME"`

	GCSBucketName string `env:"GCS_BUCKET_NAME"`
	GCSCredsFile  string `env:"GOOGLE_APPLICATION_CREDENTIALS_JSON"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
