package config

// EnvPrefix is passed to envconfig; the struct tags already carry the full names.
const EnvPrefix = "HOMESVC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	OTPSenderLog    = "log"
	OTPSenderTwilio = "twilio"
)

const (
	EnvAppEnv                 = "HOMESVC_APP_ENV"
	EnvPort                   = "HOMESVC_APP_PORT"
	EnvDBDSN                  = "HOMESVC_DB_DSN"
	EnvDBHost                 = "HOMESVC_DB_HOST"
	EnvDBUser                 = "HOMESVC_DB_USER"
	EnvDBName                 = "HOMESVC_DB_NAME"
	EnvRedisURL               = "HOMESVC_REDIS_URL"
	EnvJWTSecret              = "HOMESVC_JWT_SECRET"
	EnvJWTIssuer              = "HOMESVC_JWT_ISSUER"
	EnvJWTExpMins             = "HOMESVC_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "HOMESVC_REFRESH_TOKEN_TTL_MINUTES"
	EnvOTPTTL                 = "HOMESVC_OTP_TTL"
	EnvOTPSender              = "HOMESVC_OTP_SENDER"
	EnvPubSubNotificationTop  = "HOMESVC_PUBSUB_NOTIFICATION_TOPIC"
	EnvCronSchedule           = "HOMESVC_CRON_SCHEDULE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
