package config

// EnvPrefix is passed to envconfig; individual fields carry full names so the
// prefix only matters for variables without explicit tags.
const EnvPrefix = "AUTOGEN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	UploadPolicySkip   = "skip"
	UploadPolicyStrict = "strict"
)

const (
	EnvAppEnv                 = "AUTOGEN_APP_ENV"
	EnvPort                   = "AUTOGEN_APP_PORT"
	EnvDBDSN                  = "AUTOGEN_DB_DSN"
	EnvDBHost                 = "AUTOGEN_DB_HOST"
	EnvDBUser                 = "AUTOGEN_DB_USER"
	EnvDBName                 = "AUTOGEN_DB_NAME"
	EnvRedisURL               = "AUTOGEN_REDIS_URL"
	EnvJWTSecret              = "AUTOGEN_JWT_SECRET"
	EnvJWTIssuer              = "AUTOGEN_JWT_ISSUER"
	EnvJWTExpMins             = "AUTOGEN_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "AUTOGEN_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
