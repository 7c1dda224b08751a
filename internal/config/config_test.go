package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	RegisterPersistentFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func load(t *testing.T, fs *pflag.FlagSet) (Server, error) {
	t.Helper()
	v, err := New(fs)
	require.NoError(t, err)
	return Load(v)
}

func TestDefaults(t *testing.T) {
	cfg, err := load(t, newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultNodeID, cfg.NodeID)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0, cfg.HealthPort)
	assert.Equal(t, 0.0, cfg.RateLimit)
	assert.Equal(t, 10, cfg.RateBurst)
}

func TestEnvironmentOverridesDefault(t *testing.T) {
	t.Setenv("MESH_NODE_ID", "edge-7")
	t.Setenv("MESH_AUDIT_LOG", "/tmp/audit.jsonl")
	t.Setenv("MESH_RATE_LIMIT", "2.5")

	cfg, err := load(t, newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "edge-7", cfg.NodeID)
	assert.Equal(t, "/tmp/audit.jsonl", cfg.AuditLogPath)
	assert.Equal(t, 2.5, cfg.RateLimit)
}

func TestFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("MESH_NODE_ID", "from-env")

	cfg, err := load(t, newFlags(t, "--node-id", "from-flag", "--listen", ":9000"))
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.NodeID)
	assert.Equal(t, ":9000", cfg.Listen)
}

func TestLogLevelFromEnvironment(t *testing.T) {
	t.Setenv("MESH_LOG_LEVEL", "debug")

	cfg, err := load(t, newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestTrustProxy(t *testing.T) {
	cfg, err := load(t, newFlags(t))
	require.NoError(t, err)
	assert.False(t, cfg.TrustProxy)

	t.Setenv("MESH_TRUST_PROXY", "true")
	cfg, err = load(t, newFlags(t))
	require.NoError(t, err)
	assert.True(t, cfg.TrustProxy)
}

func TestEmptyNodeIDFallsBack(t *testing.T) {
	cfg, err := load(t, newFlags(t, "--node-id", ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultNodeID, cfg.NodeID)
}

func TestValidate(t *testing.T) {
	base := Server{Listen: ":1", RateBurst: 1}
	assert.NoError(t, base.Validate())

	bad := []Server{
		{Listen: ""},
		{Listen: ":1", HealthPort: 70000},
		{Listen: ":1", RateLimit: -1},
		{Listen: ":1", RateLimit: 5, RateBurst: 0},
	}
	for _, c := range bad {
		assert.Error(t, c.Validate(), "%+v", c)
	}
}
