package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "FAIRPOS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "FAIRPOS_APP_ENV"
	EnvPort       = "FAIRPOS_APP_PORT"
	EnvLogLevel   = "FAIRPOS_LOG_LEVEL"
	EnvLogFormat  = "FAIRPOS_LOG_FORMAT"
	EnvTimeZone   = "FAIRPOS_TIME_ZONE"
	EnvUseSQLite  = "FAIRPOS_USE_SQLITE"
	EnvDBDSN      = "FAIRPOS_DB_DSN"
	EnvDBHost     = "FAIRPOS_DB_HOST"
	EnvDBUser     = "FAIRPOS_DB_USER"
	EnvDBName     = "FAIRPOS_DB_NAME"
	EnvDBPassword = "FAIRPOS_DB_PASSWORD"
	EnvRedisURL   = "FAIRPOS_REDIS_URL"

	EnvJWTSecret  = "FAIRPOS_JWT_SECRET"
	EnvJWTIssuer  = "FAIRPOS_JWT_ISSUER"
	EnvJWTExpMins = "FAIRPOS_JWT_EXPIRATION_MINUTES"

	EnvGoogleClientID      = "FAIRPOS_GOOGLE_CLIENT_ID"
	EnvGoogleAllowedEmails = "FAIRPOS_GOOGLE_ALLOWED_EMAILS"
	EnvDriveFolderID       = "FAIRPOS_DRIVE_FOLDER_ID"
	EnvCORSOrigins         = "FAIRPOS_CORS_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
