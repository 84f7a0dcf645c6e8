// Package config builds runtime configuration from environment variables so
// main stays lean. Policy constants live here too: they are business
// configuration, not code, and an optional YAML policy file can override the
// defaults per deployment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
}

// RedisConfig captures connection settings for the Redis-backed session
// store. An empty URL means Redis is not configured and the in-memory store
// is used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SessionConfig controls session retention.
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// KafkaConfig captures audit event publishing settings. Empty brokers
// disable publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// PostgresConfig captures the application archive database. An empty DSN
// selects the in-memory archive.
type PostgresConfig struct {
	DSN string
}

// Config is the full runtime configuration.
type Config struct {
	Server   Server
	Redis    RedisConfig
	Session  SessionConfig
	Kafka    KafkaConfig
	Postgres PostgresConfig
	Policy   Policy
}

// Policy holds every tunable business rule of the loan pipeline. Defaults
// mirror the lending policy the product launched with.
type Policy struct {
	Underwriting UnderwritingPolicy `yaml:"underwriting"`
	Sales        SalesPolicy        `yaml:"sales"`
	Fraud        FraudPolicy        `yaml:"fraud"`
	Intent       IntentPolicy       `yaml:"intent"`
}

// UnderwritingPolicy holds the hard gates and the scored-rejection threshold.
type UnderwritingPolicy struct {
	MinAge          int     `yaml:"min_age"`
	MaxAge          int     `yaml:"max_age"`
	MinIncome       float64 `yaml:"min_income"`
	MinLoanAmount   float64 `yaml:"min_loan_amount"`
	MaxLoanAmount   float64 `yaml:"max_loan_amount"`
	RejectThreshold float64 `yaml:"reject_threshold"`
	BaseRate        float64 `yaml:"base_rate"`
	MaxRate         float64 `yaml:"max_rate"`
}

// SalesPolicy holds offer construction and negotiation rules.
type SalesPolicy struct {
	BaseRate             float64 `yaml:"base_rate"`
	MaxRate              float64 `yaml:"max_rate"`
	NegotiationDecrement float64 `yaml:"negotiation_decrement"`
	AlternativeFactor    float64 `yaml:"alternative_factor"`
	MinLoanAmount        float64 `yaml:"min_loan_amount"`
	DefaultTenureMonths  int     `yaml:"default_tenure_months"`
	LowRiskTier          float64 `yaml:"low_risk_tier"`
	MediumRiskTier       float64 `yaml:"medium_risk_tier"`
	HighRiskTier         float64 `yaml:"high_risk_tier"`
	MediumTierMarkup     float64 `yaml:"medium_tier_markup"`
	HighTierMarkup       float64 `yaml:"high_tier_markup"`
}

// FraudPolicy holds the composite-score acceptance rule applied after the
// fraud engine runs.
type FraudPolicy struct {
	// MinScore is the minimum composite integrity score required to pass
	// the fraud check. Scores below it terminate the application.
	MinScore float64 `yaml:"min_score"`
}

// IntentPolicy holds resolver thresholds.
type IntentPolicy struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// DefaultPolicy returns the launch lending policy.
func DefaultPolicy() Policy {
	return Policy{
		Underwriting: UnderwritingPolicy{
			MinAge:          21,
			MaxAge:          60,
			MinIncome:       300_000,
			MinLoanAmount:   50_000,
			MaxLoanAmount:   2_000_000,
			RejectThreshold: 0.80,
			BaseRate:        9.5,
			MaxRate:         18.0,
		},
		Sales: SalesPolicy{
			BaseRate:             9.5,
			MaxRate:              18.0,
			NegotiationDecrement: 0.5,
			AlternativeFactor:    0.6,
			MinLoanAmount:        50_000,
			DefaultTenureMonths:  36,
			LowRiskTier:          0.2,
			MediumRiskTier:       0.5,
			HighRiskTier:         0.8,
			MediumTierMarkup:     2.5,
			HighTierMarkup:       5.5,
		},
		Fraud: FraudPolicy{
			MinScore: 0.5,
		},
		Intent: IntentPolicy{
			ConfidenceThreshold: 0.4,
		},
	}
}

// FromEnv builds the full configuration from environment variables, loading
// the optional policy file when CREDGEN_POLICY_FILE is set.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr: envOr("CREDGEN_ADDR", ":8080"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("CREDGEN_REDIS_URL"),
			PoolSize:     envInt("CREDGEN_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CREDGEN_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("CREDGEN_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("CREDGEN_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("CREDGEN_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Session: SessionConfig{
			IdleTTL:       envDuration("CREDGEN_SESSION_TTL", 30*time.Minute),
			SweepInterval: envDuration("CREDGEN_SESSION_SWEEP_INTERVAL", time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("CREDGEN_KAFKA_BROKERS")),
			Topic:   envOr("CREDGEN_KAFKA_AUDIT_TOPIC", "credgen.audit"),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("CREDGEN_POSTGRES_DSN"),
		},
		Policy: DefaultPolicy(),
	}

	if path := os.Getenv("CREDGEN_POLICY_FILE"); path != "" {
		policy, err := LoadPolicy(path)
		if err != nil {
			return Config{}, fmt.Errorf("load policy file: %w", err)
		}
		cfg.Policy = policy
	}

	return cfg, nil
}

// LoadPolicy reads a YAML policy file layered over the defaults, so a file
// only needs to name the values it changes.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, err
	}
	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return policy, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if part := s[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}
