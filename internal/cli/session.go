package cli

import (
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/codec"
	"github.com/roach88/twinsync/internal/config"
	"github.com/roach88/twinsync/internal/engine"
	"github.com/roach88/twinsync/internal/model"
)

// session is the per-invocation wiring: configuration, backends and engine.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *backend.Registry
	codec    *codec.Codec
	engine   *engine.Engine
	metrics  *prometheus.Registry
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.Config == "" {
		return config.Default(), nil
	}
	return config.Load(opts.Config)
}

func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	s := &session{cfg: cfg, logger: logger, metrics: prometheus.NewRegistry()}
	s.registry, s.codec, err = config.Build(cfg, config.Env{Logger: logger, Registerer: s.metrics})
	if err != nil {
		return nil, err
	}
	s.engine = engine.New(s.registry, s.codec,
		engine.WithLogger(logger),
		engine.WithPolicy(cfg.Policy()),
	)
	return s, nil
}

// Close reports collected metrics at debug level and closes the backends.
func (s *session) Close() error {
	if s.cfg.Metrics {
		s.logMetrics()
	}
	return s.registry.Close()
}

func (s *session) logMetrics() {
	families, err := s.metrics.Gather()
	if err != nil {
		s.logger.Warn("gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			value := m.GetCounter().GetValue()
			if h := m.GetHistogram(); h != nil {
				value = float64(h.GetSampleCount())
			}
			s.logger.Debug("metric", "name", mf.GetName(), "labels", strings.Join(labels, ","), "value", value)
		}
	}
}

// withSession runs fn with an open session and closes it afterwards.
// Failures are reported through f.
func withSession(opts *RootOptions, cmd *cobra.Command, f *OutputFormatter, fn func(*session) error) (err error) {
	s, err := openSession(opts, cmd)
	if err != nil {
		return f.Fail("open backends", err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = f.Fail("close backends", cerr)
		}
	}()
	return fn(s)
}

// element finds the element at a slash separated path below root. An
// empty path is root itself.
func element(root model.Identifiable, path string) (model.Referable, error) {
	if path == "" || path == "/" {
		return root, nil
	}
	return model.LookupPath(root, strings.Split(strings.Trim(path, "/"), "/"))
}

// property is element narrowed to *model.Property.
func property(root model.Identifiable, path string) (*model.Property, error) {
	e, err := element(root, path)
	if err != nil {
		return nil, err
	}
	p, ok := e.(*model.Property)
	if !ok {
		return nil, &model.TypeMismatchError{Expected: model.KeyProperty, Actual: e.KeyType(), Key: path}
	}
	return p, nil
}
