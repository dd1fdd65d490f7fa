package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"txLogScope/internal/cache"
	"txLogScope/internal/chain"
	"txLogScope/internal/compiler"
	"txLogScope/internal/config"
	"txLogScope/internal/explorer"
	"txLogScope/internal/pipeline"
)

// services bundles the collaborators shared by every command.
type services struct {
	chain *chain.Client
	store cache.Store
	deps  pipeline.Deps
}

func openServices(ctx context.Context, cfg config.Common, logger *zap.Logger) (*services, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, cfg.CallTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	store, err := cache.Open(cfg.CacheBackend, cfg.CacheDir)
	if err != nil {
		chainClient.Close()
		return nil, fmt.Errorf("open abi cache: %w", err)
	}
	abiCache, err := cache.NewAbiCache(store, cache.AbiCacheOptions{
		Compress: cfg.CacheBackend != cache.BackendDir,
	})
	if err != nil {
		store.Close()
		chainClient.Close()
		return nil, err
	}

	deps := pipeline.Deps{Chain: chainClient, Cache: abiCache}
	if cfg.ExplorerAPIKey != "" {
		deps.Explorer = explorer.NewClient(explorer.Config{
			BaseURL:           cfg.ExplorerURL,
			APIKey:            cfg.ExplorerAPIKey,
			ChainID:           cfg.ChainID,
			RequestsPerSecond: cfg.ExplorerRPS,
		}, logger)
		if cfg.CompilerDir != "" {
			deps.Compiler = compiler.New(compiler.Config{
				Dir:      cfg.CompilerDir,
				Download: cfg.CompilerDownload,
			}, logger)
		}
	} else {
		logger.Warn("no explorer api key configured, resolving ABIs from cache only")
	}

	return &services{chain: chainClient, store: store, deps: deps}, nil
}

func (s *services) Close() error {
	s.chain.Close()
	return s.store.Close()
}
