package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windfall/windfall/internal/tables"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", c.ServerAddress())
	assert.Equal(t, "info", c.Server.LogLevel)
	assert.Equal(t, 1000, c.Server.StartingChips)
	assert.Equal(t, AuthModeDev, c.Auth.Mode)
	assert.True(t, c.HistoryEnabled())
	require.NoError(t, c.Validate())

	ttl, err := c.SessionTTL()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)

	r, err := c.Registry(time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len(), "no table blocks means the built-in catalog")
}

func TestLoadFile(t *testing.T) {
	src := `
server {
  address        = "0.0.0.0"
  port           = 9000
  log_level      = "debug"
  starting_chips = 2500
  session_ttl    = "2h"
}

auth {
  mode    = "gotrue"
  url     = "https://example.supabase.co"
  api_key = "anon-key"
}

history {
  enabled = false
}

table "practice" {
  name        = "Practice Table"
  min_bet     = 1
  max_bet     = 10
  decks       = 2
  shuffle_frequency   = "penetration-50"
  dealer_hits_soft_17 = true
  blackjack_payout    = "6:5"
}

table "whale" {
  difficulty = "Advanced"
  min_bet    = 500
  max_bet    = 5000
}
`
	path := filepath.Join(t.TempDir(), "windfall.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "0.0.0.0:9000", c.ServerAddress())
	assert.Equal(t, 2500, c.Server.StartingChips)
	assert.Equal(t, AuthModeGoTrue, c.Auth.Mode)
	assert.False(t, c.HistoryEnabled())

	r, err := c.Registry(time.Unix(0, 0))
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	practice, ok := r.Get("practice")
	require.True(t, ok)
	assert.Equal(t, "Practice Table", practice.Name)
	assert.Equal(t, 2, practice.GameSettings.NumOfDecks)
	assert.Equal(t, tables.ShufflePenetration50, practice.GameSettings.ShuffleFrequency)
	assert.True(t, practice.GameSettings.DealerHitsSoft17)
	assert.Equal(t, "6:5", practice.GameSettings.PayoutLabel())

	whale, ok := r.Get("whale")
	require.True(t, ok)
	assert.Equal(t, "whale", whale.Name, "name defaults to the label")
	assert.Equal(t, tables.Advanced, whale.Difficulty)
	assert.Equal(t, 1, whale.GameSettings.NumOfDecks)
	assert.Equal(t, tables.ShuffleEveryHand, whale.GameSettings.ShuffleFrequency)
	assert.Equal(t, "3:2", whale.GameSettings.PayoutLabel())
}

func TestParseRejectsMalformedHCL(t *testing.T) {
	_, err := Parse([]byte(`server { port = }`), "bad.hcl")
	assert.ErrorContains(t, err, "parse")

	_, err = Parse([]byte(`table "x" { name = "no limits" }`), "bad.hcl")
	assert.ErrorContains(t, err, "decode")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"bad port", `server { port = 70000 }`, "port"},
		{"bad ttl", `server { session_ttl = "soon" }`, "session_ttl"},
		{"unknown auth mode", `auth { mode = "ldap" }`, "unknown mode"},
		{"gotrue without url", `auth { mode = "gotrue" }`, "url"},
		{"inverted limits", `table "t" { min_bet = 10 max_bet = 5 }`, "max bet"},
		{"too many decks", `table "t" { min_bet = 1 max_bet = 5 decks = 9 }`, "decks"},
		{"bad shuffle", `table "t" { min_bet = 1 max_bet = 5 shuffle_frequency = "never" }`, "shuffle"},
		{"bad payout", `table "t" { min_bet = 1 max_bet = 5 blackjack_payout = "lots" }`, "payout"},
		{"bad difficulty", `table "t" { min_bet = 1 max_bet = 5 difficulty = "Easy" }`, "difficulty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.src), "test.hcl")
			require.NoError(t, err)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestParsePayout(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3:2", "1.5"},
		{"6:5", "1.2"},
		{"1:1", "1"},
		{"1.5", "1.5"},
		{" 2:1 ", "2"},
	}
	for _, tt := range tests {
		got, err := ParsePayout(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s parsed as %s", tt.in, got)
	}

	for _, bad := range []string{"", "3:", ":2", "0:1", "-1.5", "three"} {
		_, err := ParsePayout(bad)
		assert.Error(t, err, bad)
	}
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "windfall.example.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	registry, err := cfg.Registry(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())

	hr, ok := registry.Get("high-roller")
	require.True(t, ok)
	assert.Equal(t, 6, hr.GameSettings.NumOfDecks)
	assert.True(t, hr.GameSettings.DealerHitsSoft17)
}
