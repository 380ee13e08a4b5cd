package config

const (
	EnvPrefix = "MEALTIME"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "MEALTIME_APP_ENV"
	EnvPort       = "MEALTIME_APP_PORT"
	EnvLogLevel   = "MEALTIME_LOG_LEVEL"
	EnvDBDSN      = "MEALTIME_DB_DSN"
	EnvDBHost     = "MEALTIME_DB_HOST"
	EnvDBUser     = "MEALTIME_DB_USER"
	EnvDBName     = "MEALTIME_DB_NAME"
	EnvDBPassword = "MEALTIME_DB_PASSWORD"
	EnvRedisURL   = "MEALTIME_REDIS_URL"
	EnvUseSQLite  = "MEALTIME_USE_SQLITE"
)

var legacyDBEnvVars = []string{
	EnvDBHost,
	EnvDBUser,
	EnvDBName,
}
