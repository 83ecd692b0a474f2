package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type UpstreamCfg struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RatePerMin int
}

type PostgresCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

type EventsCfg struct {
	Enabled bool
	Brokers string
	Topic   string
	Queue   int
}

type Config struct {
	Addr             string
	LogLevel         string
	LogConsole       bool
	LogSampleN       int
	Upstream         UpstreamCfg
	FreshnessWindow  time.Duration
	StoreDriver      string
	Postgres         PostgresCfg
	SQLitePath       string
	RedisAddr        string
	CacheOpTimeout   time.Duration
	ObjectCacheSize  int
	WriteBackWorkers int
	WriteBackQueue   int
	WriteBackRetries int
	DedupeInflight   bool
	Events           EventsCfg
	H3Res            int
	MetricsEnabled   bool
	MetricsAddr      string
	MetricsPath      string
}

func FromEnv() Config {
	res := getint("H3_RES", 7)
	if res < 0 || res > 15 {
		res = 7
	}

	window := getduration("FRESHNESS_WINDOW", 30*time.Minute)
	if window <= 0 {
		window = 30 * time.Minute
	}

	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),
		Upstream: UpstreamCfg{
			BaseURL:    strings.TrimRight(getenv("N2YO_BASE_URL", "https://api.n2yo.com/rest/v1/satellite"), "/"),
			APIKey:     getenv("N2YO_API_KEY", ""),
			Timeout:    getduration("UPSTREAM_TIMEOUT", 10*time.Second),
			RatePerMin: getint("UPSTREAM_RATE_PER_MIN", 100),
		},
		FreshnessWindow: window,
		StoreDriver:     strings.ToLower(getenv("STORE_DRIVER", "postgres")),
		Postgres: PostgresCfg{
			Host:     getenv("POSTGRES_HOST", "localhost"),
			Port:     getenv("POSTGRES_PORT", "5432"),
			User:     getenv("POSTGRES_USER", "passcache"),
			Password: getenv("POSTGRES_PASSWORD", "passcache"),
			Database: getenv("POSTGRES_DATABASE", "passcache"),
			SSLMode:  getenv("POSTGRES_SSL_MODE", "disable"),
		},
		SQLitePath:       getenv("SQLITE_PATH", "passcache.db"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		CacheOpTimeout:   getduration("CACHE_OP_TIMEOUT", 2*time.Second),
		ObjectCacheSize:  getint("OBJECT_CACHE_SIZE", 1024),
		WriteBackWorkers: getint("WRITEBACK_WORKERS", 4),
		WriteBackQueue:   getint("WRITEBACK_QUEUE", 256),
		WriteBackRetries: getint("WRITEBACK_RETRIES", 2),
		DedupeInflight:   getbool("DEDUPE_INFLIGHT", false),
		Events: EventsCfg{
			Enabled: getbool("EVENTS_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "pass-resolutions"),
			Queue:   getint("EVENTS_QUEUE", 1024),
		},
		H3Res:          res,
		MetricsEnabled: getbool("METRICS_ENABLED", false),
		MetricsAddr:    getenv("METRICS_ADDR", ":9090"),
		MetricsPath:    getenv("METRICS_PATH", "/metrics"),
	}
}

// BrokerList splits the comma separated broker list.
func (e EventsCfg) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
