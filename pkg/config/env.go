package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "RETAILPOINT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "RETAILPOINT_APP_ENV"
	EnvPort       = "RETAILPOINT_APP_PORT"
	EnvDBDSN      = "RETAILPOINT_DB_DSN"
	EnvDBHost     = "RETAILPOINT_DB_HOST"
	EnvDBUser     = "RETAILPOINT_DB_USER"
	EnvDBName     = "RETAILPOINT_DB_NAME"
	EnvRedisURL   = "RETAILPOINT_REDIS_URL"
	EnvJWTSecret  = "RETAILPOINT_JWT_SECRET"
	EnvJWTIssuer  = "RETAILPOINT_JWT_ISSUER"
	EnvJWTExpMins = "RETAILPOINT_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
