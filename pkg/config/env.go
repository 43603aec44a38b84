package config

const EnvPrefix = "CROWN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	PaymentsProviderSimulated = "simulated"
	PaymentsProviderSquare    = "square"

	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

const (
	EnvAppEnv  = "CROWN_APP_ENV"
	EnvAppPort = "CROWN_APP_PORT"

	EnvDBDSN  = "CROWN_DB_DSN"
	EnvDBHost = "CROWN_DB_HOST"
	EnvDBUser = "CROWN_DB_USER"
	EnvDBName = "CROWN_DB_NAME"

	EnvRedisURL  = "CROWN_REDIS_URL"
	EnvJWTSecret = "CROWN_JWT_SECRET"
	EnvUseSQLite = "CROWN_USE_SQLITE"

	EnvCheckoutAuthTimeout = "CROWN_CHECKOUT_AUTHORIZATION_TIMEOUT"
	EnvCheckoutLockBackend = "CROWN_CHECKOUT_LOCK_BACKEND"

	EnvOrdersStrictTransitions = "CROWN_ORDERS_STRICT_TRANSITIONS"

	EnvPaymentsProvider    = "CROWN_PAYMENTS_PROVIDER"
	EnvPaymentsSuccessRate = "CROWN_PAYMENTS_SIMULATED_SUCCESS_RATE"

	EnvSquareAccessToken = "CROWN_SQUARE_ACCESS_TOKEN"
	EnvSquareLocationID  = "CROWN_SQUARE_LOCATION_ID"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
