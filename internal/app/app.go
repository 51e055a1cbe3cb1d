package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/config"
	"github.com/five82/seer/internal/logging"
	"github.com/five82/seer/internal/prefs"
	"github.com/five82/seer/internal/state"
	"github.com/five82/seer/internal/ui"
)

// ErrNoOrder is returned when no order was given and none was watched before.
var ErrNoOrder = errors.New("no order to watch: pass an order id")

// Options configure the dashboard.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/seer/prefs.toml
	OrderID    string // empty reuses the last watched order
	Verbose    bool

	// Config and Logger skip loading when the caller already has them.
	Config *config.Config
	Logger *zap.Logger
}

// Run boots the order dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	var cfg config.Config
	if opts.Config != nil {
		cfg = *opts.Config
	} else {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	log := opts.Logger
	if log == nil {
		// The dashboard owns the terminal, so the console copy stays off.
		l, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
		if err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		defer closeLog()
		log = l
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	orderID, err := resolveOrder(opts.OrderID, userPrefs)
	if err != nil {
		return err
	}
	if err := prefs.Update(opts.PrefsPath, func(p *prefs.Prefs) { p.LastOrder = orderID.String() }); err != nil {
		log.Warn("save last order failed", zap.Error(err))
	}

	client, closeClient, err := Connect(ctx, cfg, log, func(err error) {
		log.Warn("session expired, login required", zap.Error(err))
	})
	if err != nil {
		return err
	}
	defer closeClient()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}

	// Start background poller
	done := StartPoller(ctx, store, client, orderID, cfg.PollInterval, log)

	log.Info("watching order", zap.String("order", orderID.String()), zap.String("api", client.BaseURL()))
	err = ui.Run(ctx, ui.Options{
		Context:   ctx,
		Backend:   client,
		Store:     store,
		Tokens:    client.TokenStore(),
		OrderID:   orderID,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
		Logger:    log,
	})
	cancel()
	<-done
	return err
}

func resolveOrder(flag string, p prefs.Prefs) (api.ID, error) {
	if id := strings.TrimSpace(flag); id != "" {
		return api.ID(id), nil
	}
	if p.LastOrder != "" {
		return api.ID(p.LastOrder), nil
	}
	return "", ErrNoOrder
}
