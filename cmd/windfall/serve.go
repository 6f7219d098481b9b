package main

import (
	"fmt"
	"os"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/windfall/windfall/internal/auth"
	"github.com/windfall/windfall/internal/config"
	"github.com/windfall/windfall/internal/history"
	"github.com/windfall/windfall/internal/server"
	"github.com/windfall/windfall/internal/session"
)

// ServeCmd runs the casino web server
type ServeCmd struct {
	Addr       string        `help:"Listen address, overrides the config file"`
	SweepEvery time.Duration `default:"1m" help:"How often expired sessions are removed"`
	NoHistory  bool          `help:"Do not record hands even if history is configured"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger := g.newLogger(os.Stderr, cfg)

	registry, err := cfg.Registry(time.Now())
	if err != nil {
		return err
	}

	authenticator, err := newAuthenticator(cfg)
	if err != nil {
		return err
	}

	ttl, err := cfg.SessionTTL()
	if err != nil {
		return err
	}
	clock := quartz.NewReal()
	sessions := session.NewStore(clock, ttl, cfg.Server.StartingChips, logger)

	var hands *history.Store
	if cfg.HistoryEnabled() && !c.NoHistory {
		hands, err = history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open hand history: %w", err)
		}
		defer hands.Close()
	}

	srv, err := server.New(server.Config{
		Registry:      registry,
		Auth:          authenticator,
		Sessions:      sessions,
		History:       hands,
		Clock:         clock,
		Logger:        logger,
		SecureCookies: cfg.Server.SecureCookies,
	})
	if err != nil {
		return err
	}

	addr := c.Addr
	if addr == "" {
		addr = cfg.ServerAddress()
	}

	logger.Info("Starting Windfall BlackJack",
		"address", addr,
		"tables", registry.Len(),
		"auth", cfg.Auth.Mode,
		"starting_chips", cfg.Server.StartingChips,
		"session_ttl", ttl,
		"history", hands != nil)

	ctx, cancel := signalContext(logger)
	defer cancel()

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return srv.ListenAndServe(ctx, addr) })
	grp.Go(func() error { return sessions.Run(ctx, c.SweepEvery) })
	return grp.Wait()
}

func newAuthenticator(cfg *config.Config) (auth.Authenticator, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeGoTrue:
		timeout, err := cfg.AuthTimeout()
		if err != nil {
			return nil, err
		}
		return auth.NewHTTPAuthenticator(cfg.Auth.URL, cfg.Auth.APIKey, timeout), nil
	case config.AuthModeDev:
		return auth.NewDevAuthenticator(), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}
