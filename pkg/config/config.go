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
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	Storage       StorageConfig
	Gemini        GeminiConfig
	Garage        GarageConfig
	Studio        StudioConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AUTOGEN_APP_ENV" required:"true"`
	Port         string `envconfig:"AUTOGEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AUTOGEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AUTOGEN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AUTOGEN_DB_DSN"`
	Driver string `envconfig:"AUTOGEN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AUTOGEN_DB_HOST"`
	LegacyPort     int    `envconfig:"AUTOGEN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AUTOGEN_DB_USER"`
	LegacyPassword string `envconfig:"AUTOGEN_DB_PASSWORD"`
	LegacyName     string `envconfig:"AUTOGEN_DB_NAME"`
	LegacySSLMode  string `envconfig:"AUTOGEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AUTOGEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AUTOGEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AUTOGEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AUTOGEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AUTOGEN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AUTOGEN_REDIS_ADDR"`
	Password     string        `envconfig:"AUTOGEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"AUTOGEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AUTOGEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AUTOGEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AUTOGEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AUTOGEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AUTOGEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"AUTOGEN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"AUTOGEN_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"AUTOGEN_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"AUTOGEN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AUTOGEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AUTOGEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AUTOGEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AUTOGEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AUTOGEN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AUTOGEN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AUTOGEN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AUTOGEN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AUTOGEN_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AUTOGEN_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AUTOGEN_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite    bool `envconfig:"AUTOGEN_USE_SQLITE" default:"false"`
	SeedDemoData bool `envconfig:"AUTOGEN_SEED_DEMO_DATA" default:"false"`
	AutoMigrate  bool `envconfig:"AUTOGEN_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AUTOGEN_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"AUTOGEN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AUTOGEN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type StorageConfig struct {
	GarageBucket string `envconfig:"AUTOGEN_GCS_GARAGE_BUCKET" default:"garage"`
	StudioBucket string `envconfig:"AUTOGEN_GCS_STUDIO_BUCKET" default:"studio"`
	Endpoint     string `envconfig:"AUTOGEN_GCS_ENDPOINT"`
	PublicHost   string `envconfig:"AUTOGEN_GCS_PUBLIC_HOST" default:"https://storage.googleapis.com"`
}

type GeminiConfig struct {
	APIKey     string `envconfig:"AUTOGEN_GEMINI_API_KEY"`
	BaseURL    string `envconfig:"AUTOGEN_GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	TextModel  string `envconfig:"AUTOGEN_GEMINI_TEXT_MODEL" default:"gemini-3-pro-preview"`
	ImageModel string `envconfig:"AUTOGEN_GEMINI_IMAGE_MODEL" default:"gemini-2.5-flash-image"`
}

// Configured reports whether an API key is present. A missing key is not
// fatal at startup; inference calls fail individually instead.
func (g GeminiConfig) Configured() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

type GarageConfig struct {
	UploadFailurePolicy string `envconfig:"AUTOGEN_UPLOAD_FAILURE_POLICY" default:"skip"`
	MaxImagesPerCar     int    `envconfig:"AUTOGEN_GARAGE_MAX_IMAGES" default:"12"`
	MaxImageBytes       int64  `envconfig:"AUTOGEN_GARAGE_MAX_IMAGE_BYTES" default:"10485760"`
}

// StrictUploads reports whether a single failed image upload aborts the save.
func (g GarageConfig) StrictUploads() bool {
	return strings.EqualFold(strings.TrimSpace(g.UploadFailurePolicy), UploadPolicyStrict)
}

type StudioConfig struct {
	CooldownSeconds int `envconfig:"AUTOGEN_STUDIO_COOLDOWN_SECONDS" default:"10"`
}

// Cooldown returns the per-user generation cooldown window.
func (s StudioConfig) Cooldown() time.Duration {
	if s.CooldownSeconds <= 0 {
		return 0
	}
	return time.Duration(s.CooldownSeconds) * time.Second
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		// Offline/demo mode runs entirely in-process.
		db.Driver = DriverSQLite
		db.DSN = "file::memory:?cache=shared"
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
