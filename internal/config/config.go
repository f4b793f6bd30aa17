package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	CORSOrigins []string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool

	Redis       RedisConfig
	Expensify   ExpensifyConfig
	Distance    DistanceConfig
	Aggregation AggregationConfig
	Scheduler   SchedulerConfig

	TrialPeriodDays int
	Bootstrap       BootstrapConfig
}

// BootstrapConfig seeds a demo company for local runs. Ignored in production.
type BootstrapConfig struct {
	SeedDemo              bool
	DemoEmail             string
	DemoPartnerUserID     string
	DemoPartnerUserSecret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a redis address was configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type ExpensifyConfig struct {
	URL            string
	LookbackMonths int
	Timeout        time.Duration
	Concurrency    int
}

type DistanceConfig struct {
	GoogleURL   string
	GoogleKey   string
	AirURL      string
	Timeout     time.Duration
	Concurrency int
	CacheTTL    time.Duration
	RateLimit   float64
	RateBurst   int
}

type AggregationConfig struct {
	KPIMonths   int
	ChartMonths int
	SigFigs     int
}

type SchedulerConfig struct {
	Interval  time.Duration
	Jobs      []string
	BatchSize int
	LeaseTTL  time.Duration
	Disabled  bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "canopact"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		CORSOrigins:  parseList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "canopact"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),
		DBAutoMigrate:     getenvBool("DATABASE_AUTO_MIGRATE", true),

		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Expensify: ExpensifyConfig{
			URL:            getenv("EXPENSIFY_URL", "https://integrations.expensify.com/Integration-Server/ExpensifyIntegrations"),
			LookbackMonths: getenvInt("EXPENSIFY_LOOKBACK_MONTHS", 6),
			Timeout:        getenvDuration("EXPENSIFY_TIMEOUT", 60*time.Second),
			Concurrency:    getenvInt("EXPENSIFY_CONCURRENCY", 4),
		},
		Distance: DistanceConfig{
			GoogleURL:   getenv("DISTANCE_URL", "https://maps.googleapis.com/maps/api/distancematrix/json"),
			GoogleKey:   strings.TrimSpace(getenv("DISTANCE_KEY", "")),
			AirURL:      getenv("DISTANCE_24_URL", "https://www.distance24.org/route.json"),
			Timeout:     getenvDuration("DISTANCE_TIMEOUT", 10*time.Second),
			Concurrency: getenvInt("DISTANCE_CONCURRENCY", 8),
			CacheTTL:    getenvDuration("DISTANCE_CACHE_TTL", 30*24*time.Hour),
			RateLimit:   getenvFloat("DISTANCE_RATE_LIMIT", 10),
			RateBurst:   getenvInt("DISTANCE_RATE_BURST", 20),
		},
		Aggregation: AggregationConfig{
			KPIMonths:   getenvInt("AGG_KPI_MONTHS", 6),
			ChartMonths: getenvInt("AGG_CHART_MONTHS", 8),
			SigFigs:     getenvInt("AGG_SIG_FIGS", 2),
		},
		Scheduler: SchedulerConfig{
			Interval:  getenvDuration("SCHEDULER_INTERVAL", 10*time.Second),
			Jobs:      parseList(getenv("SCHEDULER_JOBS", "")),
			BatchSize: getenvInt("SCHEDULER_BATCH_SIZE", 100),
			LeaseTTL:  getenvDuration("SCHEDULER_LEASE_TTL", 5*time.Minute),
			Disabled:  getenvBool("SCHEDULER_DISABLED", false),
		},
		TrialPeriodDays: getenvInt("TRIAL_PERIOD_DAYS", 14),
		Bootstrap: BootstrapConfig{
			SeedDemo:              getenvBool("BOOTSTRAP_SEED_DEMO", false),
			DemoEmail:             getenv("BOOTSTRAP_DEMO_EMAIL", "demo@canopact.local"),
			DemoPartnerUserID:     getenv("EXPENSIFY_PARTNER_USER_ID", ""),
			DemoPartnerUserSecret: getenv("EXPENSIFY_PARTNER_USER_SECRET", ""),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

// getenvDuration accepts Go durations ("10s") or a bare number of seconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return def
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
