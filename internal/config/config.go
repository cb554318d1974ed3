// Package config loads the storefront configuration from the environment and an
// optional YAML file with the shipping and payment method tables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	CartBackendSQLite = "sqlite"
	CartBackendMongo  = "mongo"
	CartBackendMemory = "memory"
)

type Config struct {
	HTTPPort           string
	APIURL             string
	DBPath             string
	MigrationsPath     string
	RedisAddr          string
	RedisPassword      string
	CatalogTTL         time.Duration
	MongoURI           string
	MongoDB            string
	CartBackend        string
	KafkaBrokers       []string
	CatalogLocale      language.Tag
	MethodsFile        string
	Methods            checkout.Methods
	RequestTimeout     time.Duration
	UpstreamTimeout    time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	BreakerFailures    uint32
	BreakerTimeout     time.Duration
}

func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		APIURL:             getEnv("API_URL", "http://localhost:5000"),
		DBPath:             getEnv("DB_PATH", "storefront.db"),
		MigrationsPath:     getEnv("MIGRATIONS_PATH", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            getEnv("MONGO_DB", "storefront"),
		CartBackend:        getEnv("CART_BACKEND", CartBackendSQLite),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "")),
		MethodsFile:        getEnv("STOREFRONT_CONFIG", ""),
		MaxRequestBodySize: 1 << 20, // 1MB
	}

	cfg.CatalogTTL = getDuration("CATALOG_TTL", 5*time.Minute, &errs)
	cfg.RequestTimeout = getDuration("REQUEST_TIMEOUT", 30*time.Second, &errs)
	cfg.UpstreamTimeout = getDuration("UPSTREAM_TIMEOUT", 10*time.Second, &errs)
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs)
	cfg.BreakerTimeout = getDuration("BREAKER_TIMEOUT", 30*time.Second, &errs)

	failures, err := strconv.ParseUint(getEnv("BREAKER_FAILURES", "5"), 10, 32)
	if err != nil {
		errs = append(errs, fmt.Errorf("BREAKER_FAILURES: %w", err))
	}
	cfg.BreakerFailures = uint32(failures)

	locale, err := language.Parse(getEnv("CATALOG_LOCALE", "vi"))
	if err != nil {
		errs = append(errs, fmt.Errorf("CATALOG_LOCALE: %w", err))
	}
	cfg.CatalogLocale = locale

	switch cfg.CartBackend {
	case CartBackendSQLite, CartBackendMongo, CartBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("CART_BACKEND: unknown backend %q", cfg.CartBackend))
	}

	cfg.Methods = checkout.DefaultMethods()
	if cfg.MethodsFile != "" {
		methods, err := LoadMethods(cfg.MethodsFile)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.Methods = methods
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadMethods reads shipping and payment methods from a YAML file. A section
// left empty keeps the built-in defaults.
func LoadMethods(path string) (checkout.Methods, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return checkout.Methods{}, fmt.Errorf("read methods file: %w", err)
	}
	return ParseMethods(data)
}

func ParseMethods(data []byte) (checkout.Methods, error) {
	var m checkout.Methods
	if err := yaml.Unmarshal(data, &m); err != nil {
		return checkout.Methods{}, fmt.Errorf("parse methods file: %w", err)
	}

	defaults := checkout.DefaultMethods()
	if len(m.Shipping) == 0 {
		m.Shipping = defaults.Shipping
	}
	if len(m.Payment) == 0 {
		m.Payment = defaults.Payment
	}

	seen := map[string]bool{}
	for _, s := range m.Shipping {
		if s.ID == "" {
			return checkout.Methods{}, errors.New("shipping method without id")
		}
		if s.Fee < 0 {
			return checkout.Methods{}, fmt.Errorf("shipping method %q has negative fee", s.ID)
		}
		if seen["s:"+s.ID] {
			return checkout.Methods{}, fmt.Errorf("duplicate shipping method %q", s.ID)
		}
		seen["s:"+s.ID] = true
	}
	for _, p := range m.Payment {
		if p.ID == "" {
			return checkout.Methods{}, errors.New("payment method without id")
		}
		if seen["p:"+p.ID] {
			return checkout.Methods{}, fmt.Errorf("duplicate payment method %q", p.ID)
		}
		seen["p:"+p.ID] = true
	}
	return m, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
