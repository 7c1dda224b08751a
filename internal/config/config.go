// Package config resolves server settings from flags, MESH_* environment
// variables and defaults, in that order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys double as flag names. The environment form is MESH_ + upper snake case.
const (
	KeyNodeID     = "node-id"
	KeyListen     = "listen"
	KeyPolicy     = "policy"
	KeyAuditLog   = "audit-log"
	KeyLogLevel   = "log-level"
	KeyHealthPort = "health-port"
	KeyRateLimit  = "rate-limit"
	KeyRateBurst  = "rate-burst"
	KeyTrustProxy = "trust-proxy"
)

const (
	DefaultNodeID = "the-mesh-demo"
	DefaultListen = ":8787"
)

// Server holds the settings for one meshgate node.
type Server struct {
	NodeID       string
	Listen       string
	PolicyPath   string
	AuditLogPath string
	LogLevel     string
	HealthPort   int     // 0 disables the gRPC health server
	RateLimit    float64 // requests per second per client IP, 0 disables
	RateBurst    int
	TrustProxy   bool // take the client IP from X-Forwarded-For sent by private-range proxies
}

// RegisterFlags adds the server flags to fs with their defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyNodeID, DefaultNodeID, "Node identifier reported in responses")
	fs.String(KeyListen, DefaultListen, "HTTP listen address")
	fs.String(KeyPolicy, "", "Path to policy YAML (default ~/.meshgate/policy.yaml)")
	fs.String(KeyAuditLog, "", "Path to audit log JSONL file (disabled when empty)")
	fs.Int(KeyHealthPort, 0, "gRPC health service port (0 disables)")
	fs.Float64(KeyRateLimit, 0, "Per-client requests per second on /api/mesh/test (0 disables)")
	fs.Int(KeyRateBurst, 10, "Per-client burst size when rate limiting")
	fs.Bool(KeyTrustProxy, false, "Trust X-Forwarded-For from loopback and private-range peers")
}

// RegisterPersistentFlags adds flags shared by every command.
func RegisterPersistentFlags(fs *pflag.FlagSet) {
	fs.String(KeyLogLevel, "info", "Log level (debug|info|warn|error)")
}

// New returns a viper instance bound to fs and the MESH_ environment.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("MESH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyNodeID, DefaultNodeID)
	v.SetDefault(KeyListen, DefaultListen)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyRateBurst, 10)

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}
	return v, nil
}

// Load reads a Server config out of v and validates it.
func Load(v *viper.Viper) (Server, error) {
	cfg := Server{
		NodeID:       v.GetString(KeyNodeID),
		Listen:       v.GetString(KeyListen),
		PolicyPath:   v.GetString(KeyPolicy),
		AuditLogPath: v.GetString(KeyAuditLog),
		LogLevel:     v.GetString(KeyLogLevel),
		HealthPort:   v.GetInt(KeyHealthPort),
		RateLimit:    v.GetFloat64(KeyRateLimit),
		RateBurst:    v.GetInt(KeyRateBurst),
		TrustProxy:   v.GetBool(KeyTrustProxy),
	}
	if cfg.NodeID == "" {
		cfg.NodeID = DefaultNodeID
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges that would otherwise fail late at listen time.
func (c Server) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("%s must not be empty", KeyListen)
	}
	if c.HealthPort < 0 || c.HealthPort > 65535 {
		return fmt.Errorf("%s out of range: %d", KeyHealthPort, c.HealthPort)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%s must not be negative: %g", KeyRateLimit, c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("%s must be at least 1 when rate limiting", KeyRateBurst)
	}
	return nil
}
