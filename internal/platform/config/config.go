package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr         string
	ServiceName  string
	Environment  string
	LogLevel     string
	MaxBodyBytes int64

	// ExternalHostname and ExternalPort describe how the service is reached
	// from outside; they feed the issuer DID's service endpoint.
	ExternalHostname string
	ExternalPort     int

	Identity IdentityConfig
	DWN      DWNConfig
	Resolver ResolverConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// IdentityConfig locates the issuer key file.
type IdentityConfig struct {
	KeyFile string
	// ServiceEndpoints are extra DID service endpoints published with a new identity.
	ServiceEndpoints []string
	ManifestDir      string
}

// DWNConfig configures the remote decentralized web node.
// An empty Endpoint selects the in-process store.
type DWNConfig struct {
	Endpoint         string
	Timeout          time.Duration
	Concurrency      int
	ReconcileRetries uint64
}

// ResolverConfig configures DID resolution.
type ResolverConfig struct {
	UniversalResolverURL string
	Timeout              time.Duration
	CacheTTL             time.Duration
	CacheSize            int
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds audit sink settings. Empty Brokers keeps audit in memory.
type KafkaConfig struct {
	Brokers    string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed numeric or duration values fall back to their defaults.
func FromEnv() Server {
	return Server{
		Addr:             envOr("DCX_ADDR", ":3000"),
		ServiceName:      envOr("SERVICE_NAME", "verifiable-credential-issuer"),
		Environment:      envOr("ENVIRONMENT", "development"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		MaxBodyBytes:     int64(intOr("MAX_BODY_BYTES", 1<<20)),
		ExternalHostname: envOr("EXTERNAL_HOSTNAME", "localhost"),
		ExternalPort:     intOr("EXTERNAL_PORT", 3000),
		Identity: IdentityConfig{
			KeyFile:          envOr("KEY_FILE", "./keys.json"),
			ServiceEndpoints: listOr("DID_SERVICE_ENDPOINTS"),
			ManifestDir:      os.Getenv("MANIFEST_DIR"),
		},
		DWN: DWNConfig{
			Endpoint:         os.Getenv("DWN_ENDPOINT"),
			Timeout:          durationOr("DWN_TIMEOUT", 10*time.Second),
			Concurrency:      intOr("DWN_CONCURRENCY", 4),
			ReconcileRetries: uint64(intOr("RECONCILE_RETRIES", 0)),
		},
		Resolver: ResolverConfig{
			UniversalResolverURL: os.Getenv("UNIVERSAL_RESOLVER_URL"),
			Timeout:              durationOr("RESOLVER_TIMEOUT", 5*time.Second),
			CacheTTL:             durationOr("DID_CACHE_TTL", 5*time.Minute),
			CacheSize:            intOr("DID_CACHE_SIZE", 1024),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:    os.Getenv("KAFKA_BROKERS"),
			AuditTopic: envOr("AUDIT_TOPIC", "dcx.audit"),
		},
	}
}

// ExternalURL is the base URL peers use to reach this service.
// Port 443 implies https with no explicit port.
func (s Server) ExternalURL() string {
	if s.ExternalPort == 443 {
		return "https://" + s.ExternalHostname
	}
	return fmt.Sprintf("http://%s:%d", s.ExternalHostname, s.ExternalPort)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func durationOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return def
}

func listOr(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
