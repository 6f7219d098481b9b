// Package config loads the windfall HCL configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"

	"github.com/windfall/windfall/internal/tables"
)

// Auth modes
const (
	AuthModeDev    = "dev"
	AuthModeGoTrue = "gotrue"
)

// Config represents the complete configuration
type Config struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Auth    *AuthSettings    `hcl:"auth,block"`
	History *HistorySettings `hcl:"history,block"`
	Tables  []TableBlock     `hcl:"table,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address       string `hcl:"address,optional"`
	Port          int    `hcl:"port,optional"`
	LogLevel      string `hcl:"log_level,optional"`
	StartingChips int    `hcl:"starting_chips,optional"`
	SessionTTL    string `hcl:"session_ttl,optional"`
	SecureCookies bool   `hcl:"secure_cookies,optional"`
}

// AuthSettings selects and configures the identity provider
type AuthSettings struct {
	Mode    string `hcl:"mode,optional"`
	URL     string `hcl:"url,optional"`
	APIKey  string `hcl:"api_key,optional"`
	Timeout string `hcl:"timeout,optional"`
}

// HistorySettings configures the hand history store. An empty path disables it.
type HistorySettings struct {
	Path    string `hcl:"path,optional"`
	Enabled *bool  `hcl:"enabled,optional"`
}

// TableBlock defines one table of the lobby
type TableBlock struct {
	ID               string `hcl:"id,label"`
	Name             string `hcl:"name,optional"`
	Description      string `hcl:"description,optional"`
	Difficulty       string `hcl:"difficulty,optional"`
	Color            string `hcl:"color,optional"`
	MinBet           int    `hcl:"min_bet"`
	MaxBet           int    `hcl:"max_bet"`
	Decks            int    `hcl:"decks,optional"`
	ShuffleFrequency string `hcl:"shuffle_frequency,optional"`
	DealerHitsSoft17 bool   `hcl:"dealer_hits_soft_17,optional"`
	BlackjackPayout  string `hcl:"blackjack_payout,optional"`

	AllowDoubleAfterSplit bool `hcl:"allow_double_after_split,optional"`
	AllowResplitAces      bool `hcl:"allow_resplit_aces,optional"`
	AllowSurrender        bool `hcl:"allow_surrender,optional"`
	InsuranceAllowed      bool `hcl:"insurance_allowed,optional"`
	MaxSplits             int  `hcl:"max_splits,optional"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from an HCL file. A missing file yields Default().
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(file)
}

// Parse decodes configuration from HCL source, for tests and embedded configs
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(file)
}

func decode(file *hcl.File) (*Config, error) {
	var c Config
	if diags := gohcl.DecodeBody(file.Body, nil, &c); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.StartingChips == 0 {
		c.Server.StartingChips = 1000
	}
	if c.Server.SessionTTL == "" {
		c.Server.SessionTTL = "24h"
	}

	if c.Auth == nil {
		c.Auth = &AuthSettings{}
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = AuthModeDev
	}
	if c.Auth.Timeout == "" {
		c.Auth.Timeout = "5s"
	}

	if c.History == nil {
		c.History = &HistorySettings{}
	}
	if c.History.Path == "" && (c.History.Enabled == nil || *c.History.Enabled) {
		c.History.Path = "windfall.db"
	}

	for i := range c.Tables {
		t := &c.Tables[i]
		if t.Name == "" {
			t.Name = t.ID
		}
		if t.Difficulty == "" {
			t.Difficulty = string(tables.Beginner)
		}
		if t.Decks == 0 {
			t.Decks = 1
		}
		if t.ShuffleFrequency == "" {
			t.ShuffleFrequency = string(tables.ShuffleEveryHand)
		}
		if t.BlackjackPayout == "" {
			t.BlackjackPayout = "3:2"
		}
		if t.MaxSplits == 0 {
			t.MaxSplits = 1
		}
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.StartingChips < 0 {
		return fmt.Errorf("starting chips must not be negative: %d", c.Server.StartingChips)
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}

	switch c.Auth.Mode {
	case AuthModeDev:
	case AuthModeGoTrue:
		if c.Auth.URL == "" {
			return errors.New("auth: url is required in gotrue mode")
		}
		if c.Auth.APIKey == "" {
			return errors.New("auth: api_key is required in gotrue mode")
		}
	default:
		return fmt.Errorf("auth: unknown mode %q", c.Auth.Mode)
	}
	if _, err := c.AuthTimeout(); err != nil {
		return err
	}

	if _, err := c.Registry(time.Now()); err != nil {
		return err
	}
	return nil
}

// ServerAddress returns the listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// SessionTTL parses the session lifetime
func (c *Config) SessionTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid session_ttl %q", c.Server.SessionTTL)
	}
	return d, nil
}

// AuthTimeout parses the identity provider request timeout
func (c *Config) AuthTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Auth.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid auth timeout %q", c.Auth.Timeout)
	}
	return d, nil
}

// HistoryEnabled reports whether hands should be recorded
func (c *Config) HistoryEnabled() bool {
	return c.History.Path != "" && (c.History.Enabled == nil || *c.History.Enabled)
}

// Registry builds the table registry. Without table blocks the built-in
// catalog is used.
func (c *Config) Registry(createdAt time.Time) (*tables.Registry, error) {
	if len(c.Tables) == 0 {
		return tables.NewRegistry(tables.DefaultConfigs(createdAt)...)
	}

	configs := make([]tables.TableConfig, 0, len(c.Tables))
	for _, t := range c.Tables {
		cfg, err := t.tableConfig(createdAt)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return tables.NewRegistry(configs...)
}

func (t TableBlock) tableConfig(createdAt time.Time) (tables.TableConfig, error) {
	payout, err := ParsePayout(t.BlackjackPayout)
	if err != nil {
		return tables.TableConfig{}, fmt.Errorf("table %s: %w", t.ID, err)
	}

	difficulty := tables.Difficulty(t.Difficulty)
	switch difficulty {
	case tables.Beginner, tables.Intermediate, tables.Advanced:
	default:
		return tables.TableConfig{}, fmt.Errorf("table %s: unknown difficulty %q", t.ID, t.Difficulty)
	}

	return tables.TableConfig{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Difficulty:  difficulty,
		Color:       t.Color,
		GameSettings: tables.GameSettings{
			ID:                    t.ID + "-settings",
			Signature:             strings.ToUpper(strings.ReplaceAll(t.ID, "-", "_")) + "_CUSTOM",
			GameType:              "blackjack",
			MinBet:                t.MinBet,
			MaxBet:                t.MaxBet,
			NumOfDecks:            t.Decks,
			ShuffleFrequency:      tables.ShuffleFrequency(t.ShuffleFrequency),
			DealerHitsSoft17:      t.DealerHitsSoft17,
			AllowDoubleAfterSplit: t.AllowDoubleAfterSplit,
			AllowResplitAces:      t.AllowResplitAces,
			AllowSurrender:        t.AllowSurrender,
			InsuranceAllowed:      t.InsuranceAllowed,
			MaxSplits:             t.MaxSplits,
			PayoutBlackjack:       payout,
			CreatedAt:             createdAt,
		},
	}, nil
}

// ParsePayout accepts odds ("3:2", "6:5") or a plain multiplier ("1.5")
func ParsePayout(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, ":"); ok {
		n, err1 := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
		d, err2 := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
		if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
			return decimal.Decimal{}, fmt.Errorf("invalid blackjack payout %q", s)
		}
		return decimal.NewFromInt(n).Div(decimal.NewFromInt(d)), nil
	}

	m, err := decimal.NewFromString(s)
	if err != nil || !m.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("invalid blackjack payout %q", s)
	}
	return m, nil
}
