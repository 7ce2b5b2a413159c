package config

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/sethvargo/go-envconfig"

	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

// Store backends.
const (
	BackendAuto     = "auto"
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendMongo    = "mongo"
)

// Identity modes.
const (
	AuthDev   = "dev"
	AuthHS256 = "hs256"
	AuthJWKS  = "jwks"
)

type Config struct {
	Port         string `env:"PORT,             default=8080"`
	Env          string `env:"ENV,              default=development"`
	LogLevel     string `env:"LOG_LEVEL,        default=info"`
	StoreBackend string `env:"STORE_BACKEND,    default=auto"`
	SeedSample   bool   `env:"SEED_SAMPLE_DATA, default=false"`
	RateLimitRPS int    `env:"RATE_LIMIT_RPS,   default=20"`

	Auth          AuthConfig
	AWS           AWSConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	Notifications NotificationConfig
}

type AuthConfig struct {
	Mode      string `env:"AUTH_MODE,   default=dev"`
	DevUserID string `env:"DEV_USER_ID, default=user1"`
	JWTSecret string `env:"JWT_SECRET"`
	JWKSURL   string `env:"COGNITO_JWKS_URL"`
	Issuer    string `env:"COGNITO_ISSUER"`
	ClientID  string `env:"COGNITO_CLIENT_ID"`
}

type AWSConfig struct {
	Region          string `env:"AWS_REGION,            default=ap-northeast-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Table           string `env:"DYNAMODB_TABLE_NAME,   default=todo-app-table"`
	Endpoint        string `env:"DYNAMODB_ENDPOINT"`
	CreateTable     bool   `env:"DYNAMODB_CREATE_TABLE, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=todo_board"`
}

// RedisConfig is optional: an empty Addr disables the cache and the shared
// idempotency store.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	DB       int           `env:"REDIS_DB,  default=0"`
	CacheTTL time.Duration `env:"CACHE_TTL, default=30s"`
}

type NotificationConfig struct {
	Workers          int           `env:"NOTIFY_WORKERS,     default=4"`
	ReminderSchedule string        `env:"REMINDER_SCHEDULE,  default=0 0 9 * * *"`
	ReminderLeadDays int           `env:"REMINDER_LEAD_DAYS, default=1"`
	ReminderTimezone string        `env:"REMINDER_TIMEZONE,  default=Asia/Tokyo"`
	InvitationTTL    time.Duration `env:"INVITATION_TTL,     default=168h"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch c.StoreBackend {
	case BackendAuto, BackendMemory, BackendDynamoDB, BackendMongo:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of auto, memory, dynamodb, mongo; got %q", c.StoreBackend)
	}
	switch c.Auth.Mode {
	case AuthDev:
	case AuthHS256:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=hs256")
		}
	case AuthJWKS:
		if c.Auth.JWKSURL == "" {
			return fmt.Errorf("COGNITO_JWKS_URL is required when AUTH_MODE=jwks")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of dev, hs256, jwks; got %q", c.Auth.Mode)
	}
	if _, err := time.LoadLocation(c.Notifications.ReminderTimezone); err != nil {
		return fmt.Errorf("REMINDER_TIMEZONE: %w", err)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// ResolveStoreBackend turns "auto" into a concrete backend: the in-memory
// mock in development when no AWS credentials are configured, DynamoDB
// otherwise. Explicit choices are returned unchanged.
func (c *Config) ResolveStoreBackend() string {
	if c.StoreBackend != BackendAuto {
		return c.StoreBackend
	}
	hasCredentials := c.AWS.AccessKeyID != "" && c.AWS.SecretAccessKey != ""
	if c.IsDevelopment() && !hasCredentials {
		return BackendMemory
	}
	return BackendDynamoDB
}

// ReminderLocation returns the time zone reminder schedules and due dates are
// evaluated in.
func (c *Config) ReminderLocation() *time.Location {
	loc, err := time.LoadLocation(c.Notifications.ReminderTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
