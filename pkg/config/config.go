package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Admin         AdminConfig
	Cart          CartConfig
	Checkout      CheckoutConfig
	Orders        OrdersConfig
	Payments      PaymentsConfig
	Square        SquareConfig
	FeatureFlags  FeatureFlagsConfig
	Outbox        OutboxConfig
	Cron          CronConfig
	PubSub        PubSubConfig
	GCP           GCPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Checkout.AuthorizationTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvCheckoutAuthTimeout)
	}
	if c.Payments.SimulatedSuccessRate < 0 || c.Payments.SimulatedSuccessRate > 1 {
		return fmt.Errorf("%s must be between 0 and 1", EnvPaymentsSuccessRate)
	}
	switch c.Payments.Provider {
	case PaymentsProviderSimulated:
	case PaymentsProviderSquare:
		if strings.TrimSpace(c.Square.AccessToken) == "" || strings.TrimSpace(c.Square.LocationID) == "" {
			return fmt.Errorf("%s and %s are required for the square provider", EnvSquareAccessToken, EnvSquareLocationID)
		}
	default:
		return fmt.Errorf("%s must be %q or %q", EnvPaymentsProvider, PaymentsProviderSimulated, PaymentsProviderSquare)
	}
	switch c.Checkout.LockBackend {
	case LockBackendMemory, LockBackendRedis:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvCheckoutLockBackend, LockBackendMemory, LockBackendRedis)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"CROWN_APP_ENV" required:"true"`
	Port         string `envconfig:"CROWN_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CROWN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CROWN_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"CROWN_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type DBConfig struct {
	DSN    string `envconfig:"CROWN_DB_DSN"`
	Driver string `envconfig:"CROWN_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CROWN_DB_HOST"`
	Port     int    `envconfig:"CROWN_DB_PORT" default:"5432"`
	User     string `envconfig:"CROWN_DB_USER"`
	Password string `envconfig:"CROWN_DB_PASSWORD"`
	Name     string `envconfig:"CROWN_DB_NAME"`
	SSLMode  string `envconfig:"CROWN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CROWN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CROWN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CROWN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CROWN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CROWN_REDIS_URL"`
	Address      string        `envconfig:"CROWN_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"CROWN_REDIS_PASSWORD"`
	DB           int           `envconfig:"CROWN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CROWN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CROWN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CROWN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CROWN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CROWN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CROWN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CROWN_JWT_ISSUER" default:"crownleather"`
	ExpirationMinutes int    `envconfig:"CROWN_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// SessionTTL is how long an access token and its session entry stay valid.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CROWN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CROWN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CROWN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CROWN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CROWN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CROWN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CROWN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CROWN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CROWN_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CROWN_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CROWN_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// AdminConfig seeds the back office account.
type AdminConfig struct {
	Email     string `envconfig:"CROWN_ADMIN_EMAIL" default:"admin@crownleather.com"`
	Password  string `envconfig:"CROWN_ADMIN_PASSWORD" default:"admin123"`
	FirstName string `envconfig:"CROWN_ADMIN_FIRST_NAME" default:"Admin"`
	LastName  string `envconfig:"CROWN_ADMIN_LAST_NAME" default:"User"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"CROWN_CART_TTL" default:"720h"`
}

type CheckoutConfig struct {
	AuthorizationTimeout time.Duration `envconfig:"CROWN_CHECKOUT_AUTHORIZATION_TIMEOUT" default:"30s"`
	LockBackend          string        `envconfig:"CROWN_CHECKOUT_LOCK_BACKEND" default:"redis"`
	Currency             string        `envconfig:"CROWN_CHECKOUT_CURRENCY" default:"USD"`
}

// LockTTL bounds how long a crashed attempt can hold the per-session lock.
func (c CheckoutConfig) LockTTL() time.Duration {
	return c.AuthorizationTimeout + 15*time.Second
}

type OrdersConfig struct {
	StrictTransitions bool `envconfig:"CROWN_ORDERS_STRICT_TRANSITIONS" default:"false"`
	PageSize          int  `envconfig:"CROWN_ORDERS_PAGE_SIZE" default:"25"`
}

type PaymentsConfig struct {
	Provider             string        `envconfig:"CROWN_PAYMENTS_PROVIDER" default:"simulated"`
	SimulatedDelay       time.Duration `envconfig:"CROWN_PAYMENTS_SIMULATED_DELAY" default:"2s"`
	SimulatedSuccessRate float64       `envconfig:"CROWN_PAYMENTS_SIMULATED_SUCCESS_RATE" default:"0.9"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"CROWN_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"CROWN_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"CROWN_SQUARE_LOCATION_ID"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CROWN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CROWN_AUTO_MIGRATE" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CROWN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CROWN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CROWN_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"CROWN_OUTBOX_RETENTION_DAYS" default:"30"`
}

// CronConfig drives the maintenance worker.
type CronConfig struct {
	Interval time.Duration `envconfig:"CROWN_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"CROWN_CRON_LOCK_TTL" default:"10m"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"CROWN_PUBSUB_ORDERS_TOPIC" default:"crown-order-events"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"CROWN_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"CROWN_GCP_CREDENTIALS_JSON"`
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if db.DSN != "" {
		return nil
	}
	if sqlite {
		db.DSN = "file:crownleather.db?cache=shared"
		return nil
	}

	var missing []string
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
