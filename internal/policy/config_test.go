package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100.0, cfg.Scoring.Reputation)
	assert.Equal(t, 0.5, cfg.Scoring.Tau)
	assert.Equal(t, 10.0, cfg.Scoring.M)
	assert.Equal(t, 0.7, cfg.Bands.HighAbove)
	assert.Equal(t, 0.3, cfg.Bands.MediumAbove)
	assert.Equal(t, DefaultMessage, cfg.DefaultMessage)
	assert.Empty(t, cfg.Alerts)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, hash, err := LoadConfigWithHash("/nonexistent/path/policy.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hash)
}

func TestLoadConfigPartialOverlay(t *testing.T) {
	path := writePolicy(t, `
scoring:
  reputation: 40
bands:
  high_above: 0.8
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 40.0, cfg.Scoring.Reputation)
	assert.Equal(t, 0.5, cfg.Scoring.Tau, "unset fields keep defaults")
	assert.Equal(t, 10.0, cfg.Scoring.M)
	assert.Equal(t, 0.8, cfg.Bands.HighAbove)
	assert.Equal(t, 0.3, cfg.Bands.MediumAbove)
	assert.Equal(t, DefaultMessage, cfg.DefaultMessage)
}

func TestLoadConfigAlerts(t *testing.T) {
	path := writePolicy(t, `
alerts:
  - url: http://localhost:9/hook
    format: slack
    events: [low, medium]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Alerts, 1)
	assert.Equal(t, "slack", cfg.Alerts[0].Format)
	assert.Equal(t, []string{"low", "medium"}, cfg.Alerts[0].Events)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "scoring: [unterminated"},
		{"inverted bands", "bands:\n  high_above: 0.2\n  medium_above: 0.6\n"},
		{"reputation out of range", "scoring:\n  reputation: 150\n"},
		{"zero steepness", "scoring:\n  m: 0\n"},
		{"alert without url", "alerts:\n  - events: [low]\n"},
		{"alert unknown event", "alerts:\n  - url: http://x\n    events: [deny]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writePolicy(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestHashChangesWithContent(t *testing.T) {
	_, h1, err := LoadConfigWithHash(writePolicy(t, "scoring:\n  tau: 0.4\n"))
	require.NoError(t, err)
	_, h2, err := LoadConfigWithHash(writePolicy(t, "scoring:\n  tau: 0.6\n"))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
	assert.Contains(t, h1, "sha256:")
}

func TestDefaultConfigYAMLMatchesDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigYAML()), cfg))
	assert.Equal(t, DefaultConfig(), cfg)
}
