package config

import (
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ROSTER_TTL", "")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("RECORDS_SHEET", "")

	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.RosterTTL)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, "기록", cfg.RecordsSheet)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ROSTER_TTL", "2m")
	t.Setenv("RATE_LIMIT_PER_MIN", "abc")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	assert.Equal(t, 2*time.Minute, cfg.RosterTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin, "invalid ints fall back")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := App{
		Env:               "production",
		CacheBackend:      "memcached",
		RosterSheet:       "학생명단",
		RecordsSheet:      "기록",
		SessionSigningKey: "dev-signing-secret-change",
		SessionTTL:        time.Hour,
		MaxUploadMB:       10,
	}

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	// credentials, sheet id, folder id, cache backend, production key
	assert.Len(t, merr.Errors, 5)
}

func TestValidateOK(t *testing.T) {
	cfg := App{
		Env:                "dev",
		ServiceAccountJSON: "{}",
		SpreadsheetID:      "sheet",
		DriveFolderID:      "folder",
		RosterSheet:        "학생명단",
		RecordsSheet:       "기록",
		CacheBackend:       "redis",
		SessionSigningKey:  "k",
		SessionTTL:         time.Hour,
		MaxUploadMB:        10,
	}
	assert.NoError(t, cfg.Validate())
}

func TestLocationFallsBack(t *testing.T) {
	assert.Equal(t, time.Local, App{Timezone: "Not/AZone"}.Location())
	assert.Equal(t, time.UTC, App{Timezone: "UTC"}.Location())
}
