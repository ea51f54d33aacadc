package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, LedgerBackendPostgres, cfg.Ledger.Backend)
	assert.True(t, cfg.Ledger.FallbackToMemory)
	assert.Equal(t, 3, cfg.Ledger.MaxConflictRetries)
	assert.Equal(t, DefaultOrganizations(), cfg.Organizations)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Docs.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	t.Setenv("LEDGER_BACKEND", "MEMORY")
	t.Setenv("LEDGER_MAX_CONFLICT_RETRIES", "-2")
	t.Setenv("ORG_DEPARTMENT_MSPS", " CSEMSP, ,ECEMSP ")
	t.Setenv("VERIFICATION_BASE_URL", "https://verify.example.edu/")
	t.Setenv("QUERY_CACHE_TTL", "not-a-duration")
	t.Setenv("ENABLE_DOCS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, LedgerBackendMemory, cfg.Ledger.Backend)
	assert.Zero(t, cfg.Ledger.MaxConflictRetries)
	assert.Equal(t, []string{"CSEMSP", "ECEMSP"}, cfg.Organizations.Departments)
	assert.Equal(t, "https://verify.example.edu", cfg.Verification.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Docs.Enabled, "docs are never served in production")
}
