package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/roster-service/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Store        StoreConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Membership   MembershipConfig
	Roster       RosterConfig
	Bulk         BulkConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StoreConfig selects the key/value backend holding job records.
type StoreConfig struct {
	Backend string // "redis" or "postgres"
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	SchedulerToken        string
}

// MembershipConfig points at the external membership API.
type MembershipConfig struct {
	BaseURL        string
	APIToken       string
	TimeoutSeconds int
}

// RosterConfig governs how people are attached to organizations.
type RosterConfig struct {
	Mode                     domain.RosterMode
	DefaultRelationshipType  string
	AllowedRelationshipTypes []string
	RelationshipRequired     bool
	RelationshipDescription  string
	BaseRole                 string
	AutoRoles                []string
	ExcludedRoles            []string
	OwnerRole                string
	AllowOwnerAssignment     bool
	ProtectOwner             bool
	RosterRoles              []string
	GroupMemberRole          string
	GroupManagerRole         string
	GroupRemovalMode         string // "end_date" or "delete"
	GroupSeatLimit           int    // per role within a group; 0 disables
}

// BulkConfig bounds bulk-upload job processing.
type BulkConfig struct {
	BatchSize            int
	ScheduleDelaySeconds int
	RetentionCap         int
	MaxErrorSnippets     int
	SnippetMaxLen        int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	mode := domain.RosterMode(getEnv("ROSTER_MODE", string(domain.RosterModeDirect)))
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid ROSTER_MODE: %q", mode)
	}

	removalMode := getEnv("ROSTER_GROUP_REMOVAL_MODE", "end_date")
	if removalMode != "end_date" && removalMode != "delete" {
		return nil, fmt.Errorf("invalid ROSTER_GROUP_REMOVAL_MODE: %q", removalMode)
	}

	batchSize := getEnvAsInt("BULK_BATCH_SIZE", 50)
	if batchSize < 1 {
		batchSize = 1
	}
	if batchSize > 500 {
		batchSize = 500
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "roster-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", "redis"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			SchedulerToken:        getEnv("AUTH_SCHEDULER_TOKEN", ""),
		},
		Membership: MembershipConfig{
			BaseURL:        getEnv("MEMBERSHIP_API_BASE_URL", ""),
			APIToken:       os.Getenv("MEMBERSHIP_API_TOKEN"),
			TimeoutSeconds: getEnvAsInt("MEMBERSHIP_API_TIMEOUT_SECONDS", 15),
		},
		Roster: RosterConfig{
			Mode:                     mode,
			DefaultRelationshipType:  getEnv("ROSTER_DEFAULT_RELATIONSHIP_TYPE", "employee"),
			AllowedRelationshipTypes: getEnvAsSlice("ROSTER_ALLOWED_RELATIONSHIP_TYPES", []string{"employee", "manager", "contractor"}),
			RelationshipRequired:     getEnvAsBool("ROSTER_RELATIONSHIP_REQUIRED", false),
			RelationshipDescription:  getEnv("ROSTER_RELATIONSHIP_DESCRIPTION", "added via roster"),
			BaseRole:                 getEnv("ROSTER_BASE_ROLE", "member"),
			AutoRoles:                getEnvAsSlice("ROSTER_AUTO_ROLES", nil),
			ExcludedRoles:            getEnvAsSlice("ROSTER_EXCLUDED_ROLES", nil),
			OwnerRole:                getEnv("ROSTER_OWNER_ROLE", "owner"),
			AllowOwnerAssignment:     getEnvAsBool("ROSTER_ALLOW_OWNER_ASSIGNMENT", false),
			ProtectOwner:             getEnvAsBool("ROSTER_PROTECT_OWNER", true),
			RosterRoles:              getEnvAsSlice("ROSTER_GROUP_ROLES", []string{"member", "manager"}),
			GroupMemberRole:          getEnv("ROSTER_GROUP_MEMBER_ROLE", "member"),
			GroupManagerRole:         getEnv("ROSTER_GROUP_MANAGER_ROLE", "manager"),
			GroupRemovalMode:         removalMode,
			GroupSeatLimit:           getEnvAsInt("ROSTER_GROUP_SEAT_LIMIT", 0),
		},
		Bulk: BulkConfig{
			BatchSize:            batchSize,
			ScheduleDelaySeconds: getEnvAsInt("BULK_SCHEDULE_DELAY_SECONDS", 2),
			RetentionCap:         getEnvAsInt("BULK_JOB_RETENTION_CAP", 20),
			MaxErrorSnippets:     getEnvAsInt("BULK_MAX_ERROR_SNIPPETS", 5),
			SnippetMaxLen:        getEnvAsInt("BULK_SNIPPET_MAX_LEN", 160),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the membership API call timeout.
func (m MembershipConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsSlice(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
