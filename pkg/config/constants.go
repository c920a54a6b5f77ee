package config

// EnvPrefix is passed to envconfig; each field carries a fully
// qualified envconfig tag so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	AvailabilityModeStrict   = "strict"
	AvailabilityModeDegraded = "degraded"
)

const (
	EnvAppEnv   = "ATLASPAY_APP_ENV"
	EnvPort     = "ATLASPAY_APP_PORT"
	EnvLogLevel = "ATLASPAY_LOG_LEVEL"

	EnvDBDSN  = "ATLASPAY_DB_DSN"
	EnvDBHost = "ATLASPAY_DB_HOST"
	EnvDBUser = "ATLASPAY_DB_USER"
	EnvDBName = "ATLASPAY_DB_NAME"

	EnvRedisURL = "ATLASPAY_REDIS_URL"

	EnvJWTSecret              = "ATLASPAY_JWT_SECRET"
	EnvJWTIssuer              = "ATLASPAY_JWT_ISSUER"
	EnvJWTExpMins             = "ATLASPAY_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ATLASPAY_REFRESH_TOKEN_TTL_MINUTES"

	EnvLedgerAvailabilityMode = "ATLASPAY_LEDGER_AVAILABILITY_MODE"
	EnvLedgerLockWaitTimeout  = "ATLASPAY_LEDGER_LOCK_WAIT_TIMEOUT"

	EnvGCPProjectID = "ATLASPAY_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
