package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Google       GoogleConfig
	Media        MediaConfig
	Register     RegisterConfig
	HTTP         HTTPConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvTimeZone, err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FAIRPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"FAIRPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FAIRPOS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FAIRPOS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FAIRPOS_LOG_WARN_STACK" default:"false"`
	ShopName     string `envconfig:"FAIRPOS_SHOP_NAME" default:"ร้านแฟร์"`
	// ShopFooter lines are printed under the receipt totals.
	ShopFooter []string `envconfig:"FAIRPOS_SHOP_FOOTER"`
	TimeZone   string   `envconfig:"FAIRPOS_TIME_ZONE" default:"Asia/Bangkok"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the shop time zone used on receipts and upload file names.
func (a AppConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(a.TimeZone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(a.TimeZone)
}

type DBConfig struct {
	DSN    string `envconfig:"FAIRPOS_DB_DSN"`
	Driver string `envconfig:"FAIRPOS_DB_DRIVER" default:"postgres"`
	// SQLitePath is used when FeatureFlags.UseSQLite is set.
	SQLitePath string `envconfig:"FAIRPOS_DB_SQLITE_PATH" default:"fairpos.db"`

	LegacyHost     string `envconfig:"FAIRPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"FAIRPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FAIRPOS_DB_USER"`
	LegacyPassword string `envconfig:"FAIRPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"FAIRPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"FAIRPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FAIRPOS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"FAIRPOS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"FAIRPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FAIRPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FAIRPOS_REDIS_URL"`
	Address      string        `envconfig:"FAIRPOS_REDIS_ADDR"`
	Password     string        `envconfig:"FAIRPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FAIRPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FAIRPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FAIRPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FAIRPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FAIRPOS_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"FAIRPOS_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FAIRPOS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FAIRPOS_JWT_ISSUER" default:"fairpos"`
	ExpirationMinutes      int    `envconfig:"FAIRPOS_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"FAIRPOS_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the JWT lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type GoogleConfig struct {
	ClientID      string   `envconfig:"FAIRPOS_GOOGLE_CLIENT_ID" required:"true"`
	AllowedEmails []string `envconfig:"FAIRPOS_GOOGLE_ALLOWED_EMAILS"`
	DriveFolderID string   `envconfig:"FAIRPOS_DRIVE_FOLDER_ID" required:"true"`
	// DriveEndpoint overrides the Drive API base URL (local fakes).
	DriveEndpoint string        `envconfig:"FAIRPOS_DRIVE_ENDPOINT"`
	DriveTokenTTL time.Duration `envconfig:"FAIRPOS_DRIVE_TOKEN_TTL" default:"55m"`
}

// EmailAllowed reports whether the address may sign in. An empty list admits any verified account.
func (g GoogleConfig) EmailAllowed(email string) bool {
	if len(g.AllowedEmails) == 0 {
		return true
	}
	for _, allowed := range g.AllowedEmails {
		if strings.EqualFold(strings.TrimSpace(allowed), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"FAIRPOS_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured limit into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

type RegisterConfig struct {
	StateTTL      time.Duration `envconfig:"FAIRPOS_REGISTER_STATE_TTL" default:"12h"`
	CommitLockTTL time.Duration `envconfig:"FAIRPOS_REGISTER_COMMIT_LOCK_TTL" default:"30s"`
	HandoffTTL    time.Duration `envconfig:"FAIRPOS_HANDOFF_TTL" default:"30m"`
}

type HTTPConfig struct {
	CORSOrigins        []string      `envconfig:"FAIRPOS_CORS_ORIGINS" default:"http://localhost:3000"`
	RateLimitPerMinute int           `envconfig:"FAIRPOS_RATE_LIMIT_PER_MINUTE" default:"300"`
	ShutdownTimeout    time.Duration `envconfig:"FAIRPOS_SHUTDOWN_TIMEOUT" default:"15s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FAIRPOS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FAIRPOS_AUTO_MIGRATE" default:"false"`
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
