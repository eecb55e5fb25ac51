// Package cli wires configuration into engines, executors and stores for
// the weft commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/config"
	"github.com/aretw0/weft/internal/runtime"
	"github.com/aretw0/weft/pkg/adapters/file"
	"github.com/aretw0/weft/pkg/adapters/memory"
	"github.com/aretw0/weft/pkg/adapters/process"
	"github.com/aretw0/weft/pkg/adapters/redis"
	"github.com/aretw0/weft/pkg/adapters/remote"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/persistence/middleware"
	"github.com/aretw0/weft/pkg/ports"
)

// ErrNoGraph is returned when neither a flag nor the config names a graph file.
var ErrNoGraph = errors.New("no graph file: pass --graph or set graph in weft.yaml")

// NewExecutor builds the node executor selected by cfg.Service: the local
// commands file when one is set, the remote execution service otherwise.
func NewExecutor(cfg config.Config, logger *slog.Logger) (ports.NodeExecutor, error) {
	svc := cfg.Service
	if svc.Commands != "" {
		commands, err := process.LoadCommands(svc.Commands)
		if err != nil {
			return nil, err
		}
		logger.Debug("using local commands", "file", svc.Commands, "types", len(commands))
		return process.NewRunner(
			process.WithCommands(commands),
			process.WithBaseDir(filepath.Dir(svc.Commands)),
			process.WithLogger(logger),
		), nil
	}

	opts := []remote.Option{remote.WithLogger(logger)}
	if svc.Timeout > 0 {
		opts = append(opts, remote.WithTimeout(svc.Timeout))
	}
	for k, v := range svc.Headers {
		opts = append(opts, remote.WithHeader(k, v))
	}
	logger.Debug("using execution service", "url", svc.URL)
	return remote.New(svc.URL, opts...), nil
}

// NewEngine initializes a weft engine with standard CLI conventions.
func NewEngine(cfg config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*weft.Engine, error) {
	exec, err := NewExecutor(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts := []weft.Option{
		weft.WithExecutor(exec),
		weft.WithLogger(logger),
		weft.WithFailurePolicy(runtime.FailurePolicy(cfg.Run.FailurePolicy)),
		weft.WithCyclePolicy(runtime.CyclePolicy(cfg.Run.CyclePolicy)),
		weft.WithLifecycleHooks(domain.CombineHooks(hooks...)),
	}
	if cfg.Service.DefaultModel != "" {
		opts = append(opts, weft.WithDefaultModel(cfg.Service.DefaultModel))
	}

	engine, err := weft.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// NewStore opens the run store named by cfg.Store, wrapped in the masking
// and encryption middleware it configures. The returned close function
// releases its connection, if any.
func NewStore(ctx context.Context, cfg config.Config) (ports.RunStore, func() error, error) {
	store, closeFn, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	var mws []middleware.Middleware
	if len(cfg.Store.Mask) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.Store.Mask)
		if err != nil {
			_ = closeFn()
			return nil, nil, err
		}
		mws = append(mws, mw)
	}
	active, fallback, err := cfg.Store.Keys()
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			_ = closeFn()
			return nil, nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), closeFn, nil
}

func openStore(ctx context.Context, sc config.StoreConfig) (ports.RunStore, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(sc.Driver) {
	case "", config.DriverMemory:
		return memory.NewStore(), noop, nil
	case config.DriverFile:
		return file.NewStore(sc.Dir), noop, nil
	case config.DriverRedis:
		rc := sc.Redis
		store := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", rc.Addr, err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", sc.Driver)
	}
}

// NewLoader returns the graph loader for path, falling back to cfg.Graph.
func NewLoader(cfg config.Config, path string) (ports.GraphLoader, error) {
	if path == "" {
		path = cfg.Graph
	}
	if path == "" {
		return nil, ErrNoGraph
	}
	return file.NewLoader(path), nil
}

// LoadGraph resolves the loader and reads the graph once.
func LoadGraph(ctx context.Context, cfg config.Config, path string) (*domain.Graph, error) {
	loader, err := NewLoader(cfg, path)
	if err != nil {
		return nil, err
	}
	return loader.LoadGraph(ctx)
}
