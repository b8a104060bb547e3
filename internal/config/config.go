package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Archive backends selectable with MEMENTO_STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBolt   = "bolt"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout, bounds every store query

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	PublicURL       string        // optional origin used in Location/Link headers (ex: https://archive.domain.ext)
	StoreBackend    string        // "memory" | "redis" | "bolt"
	BoltPath        string        // bbolt file when StoreBackend=bolt
	ArchiveFile     string        // optional YAML manifest loaded into the store (empty = disabled)
	ReloadInterval  time.Duration // interval to reload the manifest (0 = manual reloads only)
	TimeMapPageSize int           // mementos per TimeMap page, 0 = never paginate
	IncludeTimeGate bool          // add a timegate relation to TimeMaps and memento Link headers
	RateBurst       int           // per-IP burst on public routes
	RatePerMin      int           // per-IP refill rate on public routes

	// Redis (only read when StoreBackend=redis)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict admin routes to specific Host headers
	AllowedCIDRS []string // optional, restrict admin routes to specific IPs/CIDRs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-* headers (e.g. cloudflared)
	IngestToken  string   // optional bearer token for POST /mementos
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MEMENTO_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("MEMENTO_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("MEMENTO_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("MEMENTO_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MEMENTO_PRETTY_LOG", true),

		// Archive
		PublicURL:       strings.TrimRight(getenv("MEMENTO_PUBLIC_URL", ""), "/"),
		StoreBackend:    strings.ToLower(getenv("MEMENTO_STORE_BACKEND", BackendMemory)),
		BoltPath:        getenv("MEMENTO_BOLT_PATH", "/data/memento.db"),
		ArchiveFile:     getenv("MEMENTO_ARCHIVE_FILE", ""), // Optional, empty = manifest disabled
		ReloadInterval:  mustDuration("MEMENTO_RELOAD_INTERVAL", time.Hour),
		TimeMapPageSize: getenvInt("MEMENTO_TIMEMAP_PAGE_SIZE", 1000),
		IncludeTimeGate: mustBool("MEMENTO_INCLUDE_TIMEGATE", true),
		RateBurst:       getenvInt("MEMENTO_RATE_BURST", 60),
		RatePerMin:      getenvInt("MEMENTO_RATE_PER_MIN", 120),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("MEMENTO_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("MEMENTO_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("MEMENTO_TRUST_PROXY", false),
		IngestToken:  getenv("MEMENTO_INGEST_TOKEN", ""),
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendBolt:
	case BackendRedis:
		loadRedis(cfg)
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown MEMENTO_STORE_BACKEND %q (want memory, redis or bolt)", cfg.StoreBackend))
	}

	if cfg.TimeMapPageSize < 0 {
		panic(fmt.Sprintf("❌ FATAL: MEMENTO_TIMEMAP_PAGE_SIZE must be >= 0, got %d", cfg.TimeMapPageSize))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("MEMENTO_REDIS_ADDR")
	cfg.RedisUser = getenv("MEMENTO_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("MEMENTO_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("MEMENTO_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("MEMENTO_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: MEMENTO_REDIS_PASSWORD is required when MEMENTO_REDIS_PASSWORD_REQUIRED=true")
	}
}

// Redacted returns a copy of the config safe to log.
func (c Config) Redacted() Config {
	if c.RedisPassword != "" {
		c.RedisPassword = "***REDACTED***"
	}
	if c.RedisUser != "" {
		c.RedisUser = "***REDACTED***"
	}
	if c.IngestToken != "" {
		c.IngestToken = "***REDACTED***"
	}
	return c
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
