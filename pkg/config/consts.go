package config

// EnvPrefix is the envconfig prefix shared by every VELORA_* variable.
const EnvPrefix = "VELORA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags, mostly in tests
// and in error messages that tell the operator exactly what to set.
const (
	EnvAppEnv = "VELORA_APP_ENV"
	EnvPort   = "VELORA_APP_PORT"

	EnvDBDSN      = "VELORA_DB_DSN"
	EnvDBHost     = "VELORA_DB_HOST"
	EnvDBUser     = "VELORA_DB_USER"
	EnvDBName     = "VELORA_DB_NAME"
	EnvDBPassword = "VELORA_DB_PASSWORD"

	EnvRedisURL = "VELORA_REDIS_URL"

	EnvJWTSecret  = "VELORA_JWT_SECRET"
	EnvJWTIssuer  = "VELORA_JWT_ISSUER"
	EnvJWTExpMins = "VELORA_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "VELORA_GCP_PROJECT_ID"

	EnvCheckoutFreeShippingThreshold = "VELORA_CHECKOUT_FREE_SHIPPING_THRESHOLD"
	EnvCheckoutFlatShippingFee       = "VELORA_CHECKOUT_FLAT_SHIPPING_FEE"
)

// legacyDBEnvVars are the discrete connection vars accepted when
// VELORA_DB_DSN is unset.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
