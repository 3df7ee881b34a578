package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	OTP          OTPConfig
	Twilio       TwilioConfig
	SMTP         SMTPConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Cron         CronConfig
	Outbox       OutboxConfig
	Tracing      TracingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.OTP.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HOMESVC_APP_ENV" required:"true"`
	Port         string `envconfig:"HOMESVC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HOMESVC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HOMESVC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HOMESVC_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HOMESVC_DB_DSN"`
	Driver string `envconfig:"HOMESVC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HOMESVC_DB_HOST"`
	LegacyPort     int    `envconfig:"HOMESVC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HOMESVC_DB_USER"`
	LegacyPassword string `envconfig:"HOMESVC_DB_PASSWORD"`
	LegacyName     string `envconfig:"HOMESVC_DB_NAME"`
	LegacySSLMode  string `envconfig:"HOMESVC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOMESVC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOMESVC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOMESVC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOMESVC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOMESVC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HOMESVC_REDIS_ADDR"`
	Password     string        `envconfig:"HOMESVC_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOMESVC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOMESVC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOMESVC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOMESVC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOMESVC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOMESVC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"HOMESVC_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"HOMESVC_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"HOMESVC_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"HOMESVC_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HOMESVC_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HOMESVC_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HOMESVC_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HOMESVC_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HOMESVC_ARGON_KEY_LEN" default:"32"`
}

// OTPConfig controls one-time code lifetime and delivery.
type OTPConfig struct {
	TTL    time.Duration `envconfig:"HOMESVC_OTP_TTL" default:"10m"`
	Sender string        `envconfig:"HOMESVC_OTP_SENDER" default:"log"`
}

func (o OTPConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(o.Sender)) {
	case OTPSenderLog, OTPSenderTwilio:
	default:
		return fmt.Errorf("%s must be one of %s, %s", EnvOTPSender, OTPSenderLog, OTPSenderTwilio)
	}
	if o.TTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvOTPTTL)
	}
	return nil
}

// UseTwilio reports whether SMS should go through Twilio instead of the log sender.
func (o OTPConfig) UseTwilio() bool {
	return strings.EqualFold(strings.TrimSpace(o.Sender), OTPSenderTwilio)
}

type TwilioConfig struct {
	AccountSID string `envconfig:"HOMESVC_TWILIO_ACCOUNT_SID"`
	AuthToken  string `envconfig:"HOMESVC_TWILIO_AUTH_TOKEN"`
	FromNumber string `envconfig:"HOMESVC_TWILIO_FROM_NUMBER"`
}

type SMTPConfig struct {
	Host     string `envconfig:"HOMESVC_SMTP_HOST"`
	Port     int    `envconfig:"HOMESVC_SMTP_PORT" default:"587"`
	Username string `envconfig:"HOMESVC_SMTP_USERNAME"`
	Password string `envconfig:"HOMESVC_SMTP_PASSWORD"`
	From     string `envconfig:"HOMESVC_SMTP_FROM"`
}

// Enabled reports whether enough SMTP settings exist to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HOMESVC_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"HOMESVC_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"HOMESVC_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"HOMESVC_PUBSUB_NOTIFICATION_TOPIC"`
}

// Enabled reports whether push notifications should be published to Pub/Sub.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.NotificationTopic) != ""
}

type StripeConfig struct {
	APIKey        string `envconfig:"HOMESVC_STRIPE_API_KEY"`
	Env           string `envconfig:"HOMESVC_STRIPE_ENV" default:"test"`
	WebhookSecret string `envconfig:"HOMESVC_STRIPE_WEBHOOK_SECRET"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CronConfig struct {
	Schedule string        `envconfig:"HOMESVC_CRON_SCHEDULE" default:"*/5 * * * *"`
	LockTTL  time.Duration `envconfig:"HOMESVC_CRON_LOCK_TTL" default:"4m"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"HOMESVC_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"HOMESVC_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"HOMESVC_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"HOMESVC_OUTBOX_RETENTION" default:"720h"`
}

type TracingConfig struct {
	Endpoint string `envconfig:"HOMESVC_OTEL_EXPORTER_ENDPOINT"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
