package config

// EnvPrefix is passed to envconfig; every field carries an explicit name so it is informational.
const EnvPrefix = "MURAQQA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "MURAQQA_APP_ENV"
	EnvPort     = "MURAQQA_APP_PORT"
	EnvLogLevel = "MURAQQA_LOG_LEVEL"

	EnvDBDSN  = "MURAQQA_DB_DSN"
	EnvDBHost = "MURAQQA_DB_HOST"
	EnvDBUser = "MURAQQA_DB_USER"
	EnvDBName = "MURAQQA_DB_NAME"

	EnvRedisURL = "MURAQQA_REDIS_URL"

	EnvJWTSecret = "MURAQQA_JWT_SECRET"
	EnvJWTIssuer = "MURAQQA_JWT_ISSUER"

	EnvCatalogDebounce = "MURAQQA_CATALOG_DEBOUNCE"

	EnvCheckoutHomeCountry = "MURAQQA_CHECKOUT_HOME_COUNTRY"
	EnvCheckoutCurrency    = "MURAQQA_CHECKOUT_CURRENCY"
	EnvCheckoutPromoCodes  = "MURAQQA_CHECKOUT_PROMO_CODES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
