package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Ledger        LedgerConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Ledger.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ATLASPAY_APP_ENV" required:"true"`
	Port         string `envconfig:"ATLASPAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ATLASPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ATLASPAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ATLASPAY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ATLASPAY_DB_DSN"`
	Driver string `envconfig:"ATLASPAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ATLASPAY_DB_HOST"`
	LegacyPort     int    `envconfig:"ATLASPAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ATLASPAY_DB_USER"`
	LegacyPassword string `envconfig:"ATLASPAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"ATLASPAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"ATLASPAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ATLASPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ATLASPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ATLASPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ATLASPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ATLASPAY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ATLASPAY_REDIS_ADDR"`
	Password     string        `envconfig:"ATLASPAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"ATLASPAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ATLASPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ATLASPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ATLASPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ATLASPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ATLASPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ATLASPAY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ATLASPAY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ATLASPAY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ATLASPAY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ATLASPAY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ATLASPAY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ATLASPAY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ATLASPAY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ATLASPAY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"ATLASPAY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"ATLASPAY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"ATLASPAY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"ATLASPAY_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"ATLASPAY_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"ATLASPAY_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

// LedgerConfig drives the transactional behavior of wallet and order
// writes: how long a transaction waits on a contended wallet row, and
// whether order intake degrades or fails closed when the register is
// unavailable.
type LedgerConfig struct {
	AvailabilityMode string        `envconfig:"ATLASPAY_LEDGER_AVAILABILITY_MODE" default:"strict"`
	LockWaitTimeout  time.Duration `envconfig:"ATLASPAY_LEDGER_LOCK_WAIT_TIMEOUT" default:"5s"`

	MaxOrderAmount  string `envconfig:"ATLASPAY_LEDGER_MAX_ORDER_AMOUNT" default:"1000000"`
	MaxWalletAmount string `envconfig:"ATLASPAY_LEDGER_MAX_WALLET_AMOUNT" default:"100000"`
}

func (l LedgerConfig) validate() error {
	switch strings.ToLower(l.AvailabilityMode) {
	case AvailabilityModeStrict, AvailabilityModeDegraded:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q",
			EnvLedgerAvailabilityMode, AvailabilityModeStrict, AvailabilityModeDegraded, l.AvailabilityMode)
	}
	if l.LockWaitTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvLedgerLockWaitTimeout)
	}
	if _, err := decimal.NewFromString(l.MaxOrderAmount); err != nil {
		return fmt.Errorf("invalid max order amount %q: %w", l.MaxOrderAmount, err)
	}
	if _, err := decimal.NewFromString(l.MaxWalletAmount); err != nil {
		return fmt.Errorf("invalid max wallet amount %q: %w", l.MaxWalletAmount, err)
	}
	return nil
}

// MaxOrder returns the per-order amount ceiling. validate() guarantees the
// configured value parses.
func (l LedgerConfig) MaxOrder() decimal.Decimal {
	v, _ := decimal.NewFromString(l.MaxOrderAmount)
	return v
}

// MaxWallet returns the ceiling a wallet balance may reach through credits.
func (l LedgerConfig) MaxWallet() decimal.Decimal {
	v, _ := decimal.NewFromString(l.MaxWalletAmount)
	return v
}

// Degraded reports whether order intake should accept writes for later
// reconciliation when the register is unavailable.
func (l LedgerConfig) Degraded() bool {
	return strings.EqualFold(l.AvailabilityMode, AvailabilityModeDegraded)
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ATLASPAY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ATLASPAY_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ATLASPAY_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ATLASPAY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ATLASPAY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	LedgerTopic        string `envconfig:"ATLASPAY_PUBSUB_LEDGER_TOPIC" default:"atlaspay-ledger-events"`
	LedgerSubscription string `envconfig:"ATLASPAY_PUBSUB_LEDGER_SUBSCRIPTION" default:"atlaspay-ledger-events-sub"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ATLASPAY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ATLASPAY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ATLASPAY_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
