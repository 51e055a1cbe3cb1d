package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/config"
	"github.com/five82/seer/internal/tokens"
)

// OpenTokenStore builds the token store selected by cfg. The returned close
// function releases any connection it holds.
func OpenTokenStore(ctx context.Context, cfg config.Config) (tokens.Store, func(), error) {
	switch cfg.TokenStore {
	case config.TokenStoreMemory:
		return tokens.NewMemoryStore(tokens.Pair{}), func() {}, nil
	case config.TokenStoreRedis:
		store, err := tokens.DialRedis(ctx, cfg.RedisAddr, cfg.RedisKey)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis token store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case config.TokenStoreFile, "":
		return tokens.NewFileStore(cfg.TokenFile), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

// Connect opens the configured token store and returns an API client bound
// to it. onReauth may be nil.
func Connect(ctx context.Context, cfg config.Config, log *zap.Logger, onReauth func(error)) (*api.Client, func(), error) {
	store, closeStore, err := OpenTokenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := []api.Option{
		api.WithTokenStore(store),
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(log),
	}
	if onReauth != nil {
		opts = append(opts, api.WithReauthHandler(onReauth))
	}
	client, err := api.NewClient(cfg.APIURL, opts...)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("init api client: %w", err)
	}
	return client, closeStore, nil
}
