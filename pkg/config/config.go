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
	SMTP          SMTPConfig
	Storage       StorageConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EMPLOYEES_APP_ENV" required:"true"`
	Port         string `envconfig:"EMPLOYEES_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EMPLOYEES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EMPLOYEES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"EMPLOYEES_DB_DSN"`
	Driver string `envconfig:"EMPLOYEES_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"EMPLOYEES_DB_HOST"`
	Port     int    `envconfig:"EMPLOYEES_DB_PORT" default:"5432"`
	User     string `envconfig:"EMPLOYEES_DB_USER"`
	Password string `envconfig:"EMPLOYEES_DB_PASSWORD"`
	Name     string `envconfig:"EMPLOYEES_DB_NAME"`
	SSLMode  string `envconfig:"EMPLOYEES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EMPLOYEES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EMPLOYEES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EMPLOYEES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EMPLOYEES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EMPLOYEES_REDIS_URL"`
	Address      string        `envconfig:"EMPLOYEES_REDIS_ADDR"`
	Password     string        `envconfig:"EMPLOYEES_REDIS_PASSWORD"`
	DB           int           `envconfig:"EMPLOYEES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EMPLOYEES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EMPLOYEES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EMPLOYEES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EMPLOYEES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EMPLOYEES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all. Rate limiting
// is skipped when it was not.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"EMPLOYEES_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"EMPLOYEES_JWT_ISSUER" default:"employees-api"`
	ExpirationMinutes int    `envconfig:"EMPLOYEES_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	BcryptCost int `envconfig:"EMPLOYEES_BCRYPT_COST" default:"12"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"EMPLOYEES_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"EMPLOYEES_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"EMPLOYEES_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type SMTPConfig struct {
	Host     string `envconfig:"EMPLOYEES_SMTP_HOST"`
	Port     int    `envconfig:"EMPLOYEES_SMTP_PORT" default:"587"`
	Username string `envconfig:"EMPLOYEES_SMTP_USERNAME"`
	Password string `envconfig:"EMPLOYEES_SMTP_PASSWORD"`
	From     string `envconfig:"EMPLOYEES_SMTP_FROM"`
}

// Enabled reports whether outbound mail is configured.
func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != "" && strings.TrimSpace(s.From) != ""
}

type StorageConfig struct {
	AvatarDir     string `envconfig:"EMPLOYEES_AVATAR_DIR" default:"uploads/avatars"`
	PublicBaseURL string `envconfig:"EMPLOYEES_AVATAR_BASE_URL" default:"/uploads/avatars"`
	MaxUploadMB   int    `envconfig:"EMPLOYEES_MAX_UPLOAD_MB" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"EMPLOYEES_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
