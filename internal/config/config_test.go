package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_NAME", "ladder.db")
	t.Setenv("PORT", "8080")
	t.Setenv("PENDING_TTL", "2h")
	t.Setenv("EXPIRY_SWEEP_INTERVAL", "0")
	t.Setenv("FRIENDLY_COUNTS_RECORD", "true")
	t.Setenv("DEFAULT_LEAGUE_ID", "")

	cfg := Load()
	assert.Equal(t, "ladder.db", cfg.DBName)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "default", cfg.DefaultLeagueID)
	assert.Equal(t, 2*time.Hour, cfg.Ladder.PendingTTL)
	assert.Equal(t, time.Duration(0), cfg.Ladder.SweepInterval)
	assert.True(t, cfg.Ladder.FriendlyCountsRecord)
}

func TestDefaults(t *testing.T) {
	t.Setenv("PENDING_TTL", "")
	t.Setenv("EXPIRY_SWEEP_INTERVAL", "")
	t.Setenv("FRIENDLY_COUNTS_RECORD", "")

	assert.Equal(t, 24*time.Hour, duration("PENDING_TTL", 24*time.Hour))
	assert.Equal(t, time.Minute, duration("EXPIRY_SWEEP_INTERVAL", time.Minute))
	assert.False(t, boolean("FRIENDLY_COUNTS_RECORD", false))
	assert.Equal(t, "fallback", Optional("UNSET_LADDER_KEY", "fallback"))
}
