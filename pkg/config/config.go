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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	ShoppingList ShoppingListConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		if cfg.DB.DSN == "" {
			return nil, fmt.Errorf("%s is required when %s is enabled", EnvDBDSN, EnvUseSQLite)
		}
		cfg.DB.Driver = "sqlite"
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"MEALTIME_APP_ENV" required:"true"`
	Port         string   `envconfig:"MEALTIME_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"MEALTIME_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"MEALTIME_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"MEALTIME_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"MEALTIME_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MEALTIME_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MEALTIME_DB_DSN"`
	Driver string `envconfig:"MEALTIME_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEALTIME_DB_HOST"`
	LegacyPort     int    `envconfig:"MEALTIME_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEALTIME_DB_USER"`
	LegacyPassword string `envconfig:"MEALTIME_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEALTIME_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEALTIME_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEALTIME_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEALTIME_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEALTIME_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEALTIME_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"MEALTIME_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEALTIME_REDIS_URL"`
	Address      string        `envconfig:"MEALTIME_REDIS_ADDR"`
	Password     string        `envconfig:"MEALTIME_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEALTIME_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEALTIME_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEALTIME_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEALTIME_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEALTIME_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEALTIME_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"MEALTIME_REDIS_KEY_PREFIX" default:"mt"`
}

// Enabled reports whether any Redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MEALTIME_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MEALTIME_AUTO_MIGRATE" default:"false"`
}

type ShoppingListConfig struct {
	LockTTL       time.Duration `envconfig:"MEALTIME_SHOPPING_LIST_LOCK_TTL" default:"30s"`
	HistoryDays   int           `envconfig:"MEALTIME_SHOPPING_LIST_HISTORY_DAYS" default:"30"`
	MaxPeriodDays int           `envconfig:"MEALTIME_SHOPPING_LIST_MAX_PERIOD_DAYS" default:"62"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"MEALTIME_CRON_INTERVAL" default:"1h"`
	JobTimeout       time.Duration `envconfig:"MEALTIME_CRON_JOB_TIMEOUT" default:"10m"`
	StalenessEnabled bool          `envconfig:"MEALTIME_CRON_STALENESS_ENABLED" default:"true"`
	// MetricsAddr serves /metrics from the worker when set, e.g. ":9091".
	MetricsAddr string `envconfig:"MEALTIME_CRON_METRICS_ADDR"`
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
