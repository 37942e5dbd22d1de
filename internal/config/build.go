package config

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/backend/badger"
	"github.com/roach88/twinsync/internal/backend/file"
	"github.com/roach88/twinsync/internal/backend/memory"
	"github.com/roach88/twinsync/internal/backend/metrics"
	"github.com/roach88/twinsync/internal/backend/sqlite"
	"github.com/roach88/twinsync/internal/codec"
)

// Env carries the process-level collaborators Build needs.
type Env struct {
	// Logger is handed to adapters that log (badger). Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Registerer receives backend metrics when Config.Metrics is set.
	// Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Build opens every configured backend and registers it under its scheme.
// On error, adapters opened so far are closed. The caller owns the
// returned registry and must Close it.
func Build(c *Config, env Env) (*backend.Registry, *codec.Codec, error) {
	ser, err := codec.New(codec.Format(c.Codec))
	if err != nil {
		return nil, nil, err
	}
	if env.Logger == nil {
		env.Logger = slog.Default()
	}

	var collectors *metrics.Collectors
	if c.Metrics {
		reg := env.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		if collectors, err = metrics.NewCollectors(reg); err != nil {
			return nil, nil, err
		}
	}

	registry := backend.NewRegistry()
	for i, b := range c.Backends {
		a, err := c.open(b, env.Logger)
		if err != nil {
			registry.Close()
			return nil, nil, fmt.Errorf("backends.%d (%s): %w", i, b.Scheme, err)
		}
		if collectors != nil {
			a = metrics.Wrap(b.Scheme, a, collectors)
		}
		if err := registry.Register(b.Scheme, a); err != nil {
			if cl, ok := a.(io.Closer); ok {
				cl.Close()
			}
			registry.Close()
			return nil, nil, fmt.Errorf("backends.%d (%s): %w", i, b.Scheme, err)
		}
	}
	return registry, ser, nil
}

func (c *Config) open(b Backend, logger *slog.Logger) (backend.Adapter, error) {
	switch b.Kind {
	case KindMemory:
		return memory.New(), nil
	case KindFile:
		return file.Open(c.resolve(b.Path))
	case KindSQLite:
		return sqlite.Open(c.resolve(b.Path))
	case KindBadger:
		cfg := badger.DefaultConfig()
		if b.InMemory {
			cfg = badger.InMemoryConfig()
		}
		cfg.Path = c.resolve(b.Path)
		cfg.Logger = logger.With("backend", b.Scheme)
		if b.GCInterval != "" {
			d, err := time.ParseDuration(b.GCInterval)
			if err != nil {
				return nil, fmt.Errorf("gc_interval: %w", err)
			}
			cfg.GCInterval = d
		}
		return badger.Open(cfg)
	}
	return nil, fmt.Errorf("unknown backend kind %q", b.Kind)
}
