package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/backend/memory"
	"github.com/roach88/twinsync/internal/codec"
	"github.com/roach88/twinsync/internal/engine"
	"github.com/roach88/twinsync/internal/model"
)

// Scheme is the locator scheme of the harness's memory backend.
const Scheme = "mem"

// Harness executes one scenario.
type Harness struct {
	scenario *Scenario
	store    *memory.Store
	codec    *codec.Codec
	engine   *engine.Engine
	trees    map[string]model.Identifiable
	result   *Result
}

// Run executes a scenario and returns the result.
// A failed step expectation or assertion is reported in Result; the
// returned error is reserved for scenarios that cannot run at all, such as
// a missing document file or a step naming an unknown tree.
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}
	defer h.engine.Registry().Close()

	ctx := context.Background()
	for i, step := range scenario.Steps {
		ok, err := h.executeStep(ctx, i, step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
		if !ok {
			return h.result, nil
		}
	}

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, h) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	c := codec.JSON()
	if scenario.Codec == string(codec.FormatYAML) {
		c = codec.YAML()
	}

	store := memory.New()
	reg := backend.NewRegistry()
	if err := reg.Register(Scheme, store); err != nil {
		return nil, err
	}

	h := &Harness{
		scenario: scenario,
		store:    store,
		codec:    c,
		trees:    make(map[string]model.Identifiable),
		result:   NewResult(),
	}
	h.engine = engine.New(reg, c,
		engine.WithLogger(slog.New(slog.DiscardHandler)),
		engine.WithObserver(func(ev engine.Event) {
			h.result.Trace = append(h.result.Trace, traceEvent(ev))
		}),
	)
	return h, nil
}

// executeStep runs one step and checks its expect clause. It reports false
// when the step failed unexpectedly and the scenario cannot continue.
func (h *Harness) executeStep(ctx context.Context, i int, step Step) (bool, error) {
	stepErr := h.apply(ctx, step)
	var se *scenarioError
	if errors.As(stepErr, &se) {
		return false, se.err
	}

	label := fmt.Sprintf("steps[%d] (%s)", i, step.Op)
	var want Expect
	if step.Expect != nil {
		want = *step.Expect
	}

	got := ErrorClass(stepErr)
	switch {
	case want.Error == "" && stepErr != nil:
		h.result.AddError(fmt.Sprintf("%s: unexpected error: %v", label, stepErr))
		return false, nil
	case want.Error != "" && stepErr == nil:
		h.result.AddError(fmt.Sprintf("%s: expected %s, got success", label, want.Error))
	case want.Error != "" && got != want.Error:
		h.result.AddError(fmt.Sprintf("%s: expected %s, got %s: %v", label, want.Error, got, stepErr))
	}

	if want.Status != "" {
		tree, ok := h.trees[step.Tree]
		if !ok {
			return false, fmt.Errorf("unknown tree %q", step.Tree)
		}
		if status := tree.Status().String(); status != want.Status {
			h.result.AddError(fmt.Sprintf("%s: expected status %s, got %s", label, want.Status, status))
		}
	}
	return true, nil
}

// scenarioError marks a step that cannot run as written, as opposed to an
// operation that ran and failed.
type scenarioError struct{ err error }

func (e *scenarioError) Error() string { return e.err.Error() }

func broken(format string, args ...any) error {
	return &scenarioError{err: fmt.Errorf(format, args...)}
}

// apply performs the step and returns the operation's outcome.
func (h *Harness) apply(ctx context.Context, step Step) error {
	switch step.Op {
	case OpNew:
		return h.newTree(step)
	case OpFail:
		h.store.Fail(step.Backend, fmt.Errorf("injected %s failure", step.Backend))
		return nil
	case OpHeal:
		h.store.Fail(step.Backend, nil)
		return nil
	}

	tree, err := h.tree(step.Tree)
	if err != nil {
		return err
	}

	switch step.Op {
	case OpBind:
		return h.engine.Bind(tree, step.Locator)

	case OpCommit:
		target, err := element(tree, step.Path)
		if err != nil {
			return err
		}
		return h.engine.Commit(ctx, target)

	case OpFetch:
		target, err := element(tree, step.Path)
		if err != nil {
			return err
		}
		var opts []engine.FetchOption
		if step.RejectDirty {
			opts = append(opts, engine.WithRejectDirty())
		}
		return h.engine.Fetch(ctx, target, opts...)

	case OpUpdate:
		from, err := h.tree(step.From)
		if err != nil {
			return err
		}
		target, err := element(tree, step.Path)
		if err != nil {
			return err
		}
		remote, err := element(from, step.Path)
		if err != nil {
			return err
		}
		return h.engine.UpdateFrom(target, model.Clone(remote))

	case OpSet:
		target, err := element(tree, step.Path)
		if err != nil {
			return err
		}
		p, ok := target.(*model.Property)
		if !ok {
			return &model.TypeMismatchError{Expected: model.KeyProperty, Actual: target.KeyType(), Key: step.Path}
		}
		return p.SetValue(step.Value)

	case OpAdd:
		return h.add(tree, step)

	case OpRemove:
		return remove(tree, step.Path)

	case OpMapValue, OpCommitValue, OpFetchValue:
		target, err := element(tree, step.Path)
		if err != nil {
			return err
		}
		switch step.Op {
		case OpMapValue:
			return h.engine.MapValue(target, step.Locator)
		case OpCommitValue:
			return h.engine.CommitValue(ctx, target)
		}
		return h.engine.FetchValue(ctx, target)
	}
	return broken("unknown op %q", step.Op)
}

func (h *Harness) newTree(step Step) error {
	if _, exists := h.trees[step.Tree]; exists {
		return broken("tree %q already exists", step.Tree)
	}

	var (
		obj    model.Identifiable
		objErr error
	)
	if step.Document != "" {
		path := h.scenario.resolve(step.Document)
		data, err := os.ReadFile(path)
		if err != nil {
			return broken("read document: %w", err)
		}
		c, err := codec.New(codec.FormatFor(path))
		if err != nil {
			return &scenarioError{err: err}
		}
		obj, objErr = c.Decode(data)
		if objErr != nil {
			objErr = &backend.SerializationError{Op: "decode", Err: objErr}
		}
	} else {
		obj, objErr = model.NewSubmodel(step.ID, step.IDShort)
	}
	if objErr != nil {
		return objErr
	}
	h.trees[step.Tree] = obj
	return nil
}

// elementSet is the mutable surface shared by every set of submodel
// elements.
type elementSet interface {
	Add(model.SubmodelElement) error
	RemoveByIDShort(string) error
}

func children(r model.Referable, path string) (elementSet, error) {
	switch v := r.(type) {
	case *model.Submodel:
		return v.Elements(), nil
	case *model.SubmodelElementCollection:
		return v.Value(), nil
	case *model.SubmodelElementList:
		return v.Value(), nil
	case *model.Entity:
		return v.Statements(), nil
	}
	return nil, &model.TypeMismatchError{Expected: model.KeySubmodelElementCollection, Actual: r.KeyType(), Key: path}
}

func (h *Harness) add(tree model.Identifiable, step Step) error {
	parent, err := element(tree, step.Path)
	if err != nil {
		return err
	}
	set, err := children(parent, step.Path)
	if err != nil {
		return err
	}
	vt := model.XsString
	if step.ValueType != "" {
		vt = model.DataType(step.ValueType)
	}
	p, err := model.NewProperty(step.IDShort, vt, step.Value)
	if err != nil {
		return err
	}
	return set.Add(p)
}

func remove(tree model.Identifiable, path string) error {
	steps := splitPath(path)
	if len(steps) == 0 {
		return &model.ConstraintViolation{Message: "the root cannot be removed"}
	}
	last := steps[len(steps)-1]
	parentPath := strings.Join(steps[:len(steps)-1], "/")

	parent, err := element(tree, parentPath)
	if err != nil {
		return err
	}
	if list, ok := parent.(*model.SubmodelElementList); ok {
		idx, err := strconv.Atoi(last)
		if err != nil {
			return &model.KeyNotFoundError{Key: last, Message: "list children are addressed by index"}
		}
		return list.Value().DeleteAt(idx)
	}
	set, err := children(parent, parentPath)
	if err != nil {
		return err
	}
	return set.RemoveByIDShort(last)
}

func (h *Harness) tree(name string) (model.Identifiable, error) {
	t, ok := h.trees[name]
	if !ok {
		return nil, broken("unknown tree %q", name)
	}
	return t, nil
}

// element resolves a slash-separated path below root; list members are
// addressed by index.
func element(root model.Referable, path string) (model.Referable, error) {
	steps := splitPath(path)
	if len(steps) == 0 {
		return root, nil
	}
	return model.LookupPath(root, steps)
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
