package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/model"
)

// Op names an engine operation in Event records.
type Op string

const (
	OpCommit Op = "commit"
	OpFetch  Op = "fetch"
	OpUpdate Op = "update"
	OpLoad   Op = "load"
	OpDelete Op = "delete"

	OpCommitValue Op = "commit_value"
	OpFetchValue  Op = "fetch_value"
)

// Event describes one finished operation. Err is nil on success.
type Event struct {
	Seq     int64
	Op      Op
	Locator string
	ID      string

	// Path leads from the bound root to the element the caller passed,
	// one id_short or list index per step.
	Path []string
	Err  error
}

// Engine moves bound trees between memory and their backends.
type Engine struct {
	registry   *backend.Registry
	serializer backend.Serializer
	logger     *slog.Logger
	clock      *Clock
	policy     Policy
	observer   func(Event)
	values     *model.ValueSources
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for debug records. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPolicy sets the default conflict policy for Fetch.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithClock replaces the event clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithObserver installs fn to be called, synchronously, after every
// operation. fn must not call back into the engine for the same tree.
func WithObserver(fn func(Event)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// New returns an engine that routes locators through reg and encodes trees
// with ser.
func New(reg *backend.Registry, ser backend.Serializer, opts ...Option) *Engine {
	e := &Engine{
		registry:   reg,
		serializer: ser,
		logger:     slog.Default(),
		clock:      NewClock(),
		policy:     RemoteWins,
		values:     model.NewValueSources(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the backend registry.
func (e *Engine) Registry() *backend.Registry { return e.registry }

// Serializer returns the serializer.
func (e *Engine) Serializer() backend.Serializer { return e.serializer }

// Policy returns the default Fetch policy.
func (e *Engine) Policy() Policy { return e.policy }

// Bind binds obj to locator after checking that a backend is registered
// for the locator's scheme.
func (e *Engine) Bind(obj model.Identifiable, locator string) error {
	if _, _, err := e.registry.Resolve(locator); err != nil {
		return err
	}
	return obj.Bind(locator)
}

// Commit writes the tree r belongs to. r may be the bound root or any
// element below it; the whole bound tree is written either way.
func (e *Engine) Commit(ctx context.Context, r model.Referable) (err error) {
	root, path, ok := model.FindSourcePath(r)
	if !ok {
		return notBacked(r)
	}
	lease, err := model.Acquire(root)
	if err != nil {
		return err
	}
	defer lease.Release()

	locator := lease.Locator()
	defer func() { e.emit(OpCommit, locator, root.ID(), path, err) }()
	e.logger.Debug("commit", "locator", locator, "id", root.ID(), "path", joinPath(path))

	adapter, identifier, err := e.registry.Resolve(locator)
	if err != nil {
		return err
	}
	data, err := e.serializer.Encode(root)
	if err != nil {
		return &backend.SerializationError{Op: "encode", Err: err}
	}
	if err := adapter.Put(ctx, identifier, data); err != nil {
		return &backend.BackendUnavailableError{Locator: locator, Op: "put", Err: err}
	}
	lease.MarkClean()

	e.logger.Debug("committed", "locator", locator, "id", root.ID(), "bytes", len(data))
	return nil
}

// Fetch replaces the in-memory state of the tree r belongs to with the
// backend's. Matched children keep their identity; see model.UpdateFrom.
func (e *Engine) Fetch(ctx context.Context, r model.Referable, opts ...FetchOption) (err error) {
	o := fetchOptions{rejectDirty: e.policy == RejectDirty}
	for _, opt := range opts {
		opt(&o)
	}

	root, path, ok := model.FindSourcePath(r)
	if !ok {
		return notBacked(r)
	}
	lease, err := model.Acquire(root)
	if err != nil {
		return err
	}
	defer lease.Release()

	locator := lease.Locator()
	defer func() { e.emit(OpFetch, locator, root.ID(), path, err) }()
	e.logger.Debug("fetch", "locator", locator, "id", root.ID(), "path", joinPath(path))

	if o.rejectDirty && lease.Dirty() {
		return &model.ConstraintViolation{
			Message: fmt.Sprintf("%s %q has uncommitted changes", root.KeyType(), root.ID()),
		}
	}

	remote, err := e.get(ctx, locator)
	if err != nil {
		return err
	}
	if err := lease.Merge(root, remote); err != nil {
		return err
	}
	lease.MarkClean()

	e.logger.Debug("fetched", "locator", locator, "id", root.ID())
	return nil
}

// UpdateFrom merges remote into r. When r lies in a bound tree the tree's
// lease is held for the merge and the tree is dirty afterwards.
func (e *Engine) UpdateFrom(r, remote model.Referable) (err error) {
	root, path, ok := model.FindSourcePath(r)
	if !ok {
		return model.UpdateFrom(r, remote)
	}
	lease, err := model.Acquire(root)
	if err != nil {
		return err
	}
	defer lease.Release()

	defer func() { e.emit(OpUpdate, lease.Locator(), root.ID(), path, err) }()
	if err := lease.Merge(r, remote); err != nil {
		return err
	}
	lease.MarkDirty()
	return nil
}

// Load reads a fresh tree from locator and returns it bound and clean.
func (e *Engine) Load(ctx context.Context, locator string) (_ model.Identifiable, err error) {
	var id string
	defer func() { e.emit(OpLoad, locator, id, nil, err) }()

	obj, err := e.get(ctx, locator)
	if err != nil {
		return nil, err
	}
	id = obj.ID()
	if err := obj.Bind(locator); err != nil {
		return nil, err
	}
	e.logger.Debug("loaded", "locator", locator, "id", id)
	return obj, nil
}

// Delete removes the encoding stored under locator. Adapters that cannot
// delete yield an error wrapping errors.ErrUnsupported.
func (e *Engine) Delete(ctx context.Context, locator string) (err error) {
	defer func() { e.emit(OpDelete, locator, "", nil, err) }()

	adapter, identifier, err := e.registry.Resolve(locator)
	if err != nil {
		return err
	}
	d, ok := adapter.(backend.Deleter)
	if !ok {
		return fmt.Errorf("delete %s: %w", locator, errors.ErrUnsupported)
	}
	if err := d.Delete(ctx, identifier); err != nil {
		if errors.Is(err, errors.ErrUnsupported) {
			return fmt.Errorf("delete %s: %w", locator, err)
		}
		return &backend.BackendUnavailableError{Locator: locator, Op: "delete", Err: err}
	}
	return nil
}

// List returns the locators stored in the backend registered for scheme,
// sorted.
func (e *Engine) List(ctx context.Context, scheme string) ([]string, error) {
	prefix := scheme + ":"
	adapter, _, err := e.registry.Resolve(prefix)
	if err != nil {
		return nil, err
	}
	l, ok := adapter.(backend.Lister)
	if !ok {
		return nil, fmt.Errorf("list %s: %w", scheme, errors.ErrUnsupported)
	}
	ids, err := l.List(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrUnsupported) {
			return nil, fmt.Errorf("list %s: %w", scheme, err)
		}
		return nil, &backend.BackendUnavailableError{Locator: prefix, Op: "list", Err: err}
	}
	locators := make([]string, len(ids))
	for i, id := range ids {
		locators[i] = scheme + ":" + id
	}
	return locators, nil
}

// get reads and decodes the document behind locator.
func (e *Engine) get(ctx context.Context, locator string) (model.Identifiable, error) {
	adapter, identifier, err := e.registry.Resolve(locator)
	if err != nil {
		return nil, err
	}
	data, err := adapter.Get(ctx, identifier)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, &model.KeyNotFoundError{Key: locator, Message: "nothing stored in backend"}
		}
		return nil, &backend.BackendUnavailableError{Locator: locator, Op: "get", Err: err}
	}
	obj, err := e.serializer.Decode(data)
	if err != nil {
		return nil, &backend.SerializationError{Op: "decode", Err: err}
	}
	return obj, nil
}

func (e *Engine) emit(op Op, locator, id string, path []string, err error) {
	seq := e.clock.Next()
	if e.observer == nil {
		return
	}
	e.observer(Event{Seq: seq, Op: op, Locator: locator, ID: id, Path: path, Err: err})
}

func notBacked(r model.Referable) error {
	return &model.ConstraintViolation{
		Message: fmt.Sprintf("%s %q has no bound ancestor", r.KeyType(), r.IDShort()),
	}
}

func joinPath(path []string) string {
	return strings.Join(path, "/")
}
