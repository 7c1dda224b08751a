package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/meshgate/internal/alert"
	"github.com/ppiankov/meshgate/internal/score"
)

// DefaultMessage is scored when a request carries no message.
const DefaultMessage = "Hello from the Planetary Cognitive Mesh."

// PolicyConfig holds all configurable policy parameters.
type PolicyConfig struct {
	Scoring        score.Context       `yaml:"scoring"`
	Bands          Bands               `yaml:"bands"`
	DefaultMessage string              `yaml:"default_message"`
	Alerts         []alert.AlertConfig `yaml:"alerts"`
}

// DefaultConfig returns the built-in policy config.
func DefaultConfig() *PolicyConfig {
	return &PolicyConfig{
		Scoring:        score.DefaultContext(),
		Bands:          DefaultBands(),
		DefaultMessage: DefaultMessage,
	}
}

// Validate rejects configs whose bands or scoring inputs cannot produce
// a well-ordered decision.
func (c *PolicyConfig) Validate() error {
	if c.Bands.MediumAbove > c.Bands.HighAbove {
		return fmt.Errorf("bands.medium_above (%g) must not exceed bands.high_above (%g)",
			c.Bands.MediumAbove, c.Bands.HighAbove)
	}
	if c.Scoring.Reputation < 0 || c.Scoring.Reputation > 100 {
		return fmt.Errorf("scoring.reputation must be within [0,100], got %g", c.Scoring.Reputation)
	}
	if c.Scoring.M <= 0 {
		return fmt.Errorf("scoring.m must be positive, got %g", c.Scoring.M)
	}
	for i, a := range c.Alerts {
		if a.URL == "" {
			return fmt.Errorf("alerts[%d]: url is required", i)
		}
		for _, e := range a.Events {
			switch Band(e) {
			case BandHigh, BandMedium, BandLow:
			default:
				return fmt.Errorf("alerts[%d]: unknown event %q (want high, medium or low)", i, e)
			}
		}
	}
	return nil
}

// DefaultPath returns ~/.meshgate/policy.yaml, or "" if home is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".meshgate", "policy.yaml")
}

// LoadConfig loads policy configuration from a YAML file.
// Empty path falls back to ~/.meshgate/policy.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*PolicyConfig, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads policy configuration and returns its SHA-256 hash.
// The hash is computed over the raw YAML bytes on disk.
// When no file exists (defaults used), the hash is the SHA-256 of empty input.
func LoadConfigWithHash(path string) (*PolicyConfig, string, error) {
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return DefaultConfig(), hashBytes(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), hashBytes(nil), nil
		}
		return nil, "", fmt.Errorf("failed to read policy config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse policy config: %w", err)
	}
	if cfg.DefaultMessage == "" {
		cfg.DefaultMessage = DefaultMessage
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid policy config %s: %w", path, err)
	}

	return cfg, hashBytes(data), nil
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}

// DefaultConfigYAML returns a commented YAML string for init-policy.
func DefaultConfigYAML() string {
	return `# meshgate policy configuration
# Generated by: meshgate init-policy
#
# Pipeline (cannot be changed):
#   1. Signature: message length -> elevations
#   2. Score: logistic(m * (0.7*sum*0.01 + 0.3*reputation/100 - tau))
#   3. Band: score > high_above -> high, score > medium_above -> medium, else low
#   4. Crypto plan and cost estimate from the band and score

# Scoring inputs.
# reputation: caller trust signal in [0,100]
# tau: logistic midpoint
# m: logistic steepness (must be positive)
scoring:
  reputation: 100
  tau: 0.5
  m: 10

# Strict lower bounds for each band. A score equal to a bound drops a tier.
# high   -> ed25519+x25519+aes256gcm+hmac-sha256 (encrypted, signed, hop 0)
# medium -> p256-ecdsa-only (signed, hop 0)
# low    -> none
bands:
  high_above: 0.7
  medium_above: 0.3

# Message scored when a request body carries none.
default_message: "Hello from the Planetary Cognitive Mesh."

# Webhook alerts fired when a decision lands in one of the listed bands.
# alerts:
#   - url: https://hooks.example.com/mesh
#     format: slack        # generic | slack
#     events: [low]
#     headers:
#       Authorization: "Bearer <token>"
`
}
