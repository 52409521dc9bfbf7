package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "udyam/pkg/platform/strings"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	Env            string
	LogLevel       string
	Version        string
	AllowedOrigins []string
	// TrustedProxies are the peers whose forwarding headers name the client.
	// Empty means every request is attributed to its socket address.
	TrustedProxies  []netip.Prefix
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration

	// ProcessingDelay is the fixed wait applied to every accepted submission.
	ProcessingDelay time.Duration

	SubmitRateLimit RateLimit
	Redis           RedisConfig
	Kafka           KafkaConfig
}

// RateLimit is a fixed window admission rule.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// RedisConfig is optional; an empty URL keeps rate limit counters in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig is optional; no brokers means submission events are only logged.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// IsProduction reports whether the server runs with production defaults.
func (s Server) IsProduction() bool {
	return s.Env == EnvProduction
}

// Load reads an optional .env file and then builds the config from the environment.
func Load(files ...string) (Server, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []error

	port := getString("PORT", "5000")
	frontendURL := getString("FRONTEND_URL", "http://localhost:3000")
	origins := []string{frontendURL, "https://localhost:3000"}
	origins = append(origins, pstrings.SplitList(os.Getenv("CORS_ORIGINS"))...)

	cfg := Server{
		Addr:           ":" + port,
		Env:            getString("APP_ENV", EnvDevelopment),
		LogLevel:       getString("LOG_LEVEL", "info"),
		Version:        getString("APP_VERSION", "1.0.0"),
		AllowedOrigins: pstrings.DedupeAndTrim(origins),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: pstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getString("KAFKA_TOPIC", "udyam.submissions"),
		},
	}

	var err error
	if cfg.SubmitRateLimit.Requests, err = getInt("SUBMIT_RATE_LIMIT", 10); err != nil {
		errs = append(errs, err)
	}
	if cfg.SubmitRateLimit.Window, err = getDuration("SUBMIT_RATE_WINDOW", 15*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.ProcessingDelay, err = getDuration("PROCESSING_DELAY", time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	maxBody, err := getInt("MAX_BODY_BYTES", 10<<20)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.MaxBodyBytes = int64(maxBody)
	if cfg.TrustedProxies, err = getPrefixes("TRUSTED_PROXIES"); err != nil {
		errs = append(errs, err)
	}

	if _, err := strconv.Atoi(port); err != nil {
		errs = append(errs, fmt.Errorf("PORT: invalid port %q", port))
	}
	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction && cfg.Env != "test" {
		errs = append(errs, fmt.Errorf("APP_ENV: unsupported environment %q", cfg.Env))
	}
	if cfg.SubmitRateLimit.Requests <= 0 {
		errs = append(errs, errors.New("SUBMIT_RATE_LIMIT: must be positive"))
	}
	if cfg.SubmitRateLimit.Window <= 0 {
		errs = append(errs, errors.New("SUBMIT_RATE_WINDOW: must be positive"))
	}
	if cfg.ProcessingDelay < 0 {
		errs = append(errs, errors.New("PROCESSING_DELAY: must not be negative"))
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES: must be positive"))
	}

	if len(errs) > 0 {
		return Server{}, errors.Join(errs...)
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

// getPrefixes reads a comma separated list of CIDRs or bare addresses.
func getPrefixes(key string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range pstrings.SplitList(os.Getenv(key)) {
		if p, err := netip.ParsePrefix(item); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid address or CIDR %q", key, item)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
