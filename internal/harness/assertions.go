package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", event.Seq, event.Op, event.Locator)
			if len(event.Path) > 0 {
				fmt.Fprintf(&buf, " /%s", strings.Join(event.Path, "/"))
			}
			if event.Error != "" {
				fmt.Fprintf(&buf, " -> %s", event.Error)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// propertyValue reads the value of the property at path below root.
func propertyValue(root model.Referable, path string) (string, error) {
	target, err := element(root, path)
	if err != nil {
		return "", err
	}
	p, ok := target.(*model.Property)
	if !ok {
		return "", &model.TypeMismatchError{Expected: model.KeyProperty, Actual: target.KeyType(), Key: path}
	}
	return p.Value(), nil
}

func (h *Harness) assertValue(a Assertion) error {
	tree, err := h.tree(a.Tree)
	if err != nil {
		return err
	}
	got, err := propertyValue(tree, a.Path)
	if err != nil {
		return err
	}
	if got != a.Equals {
		return &AssertionError{
			Type:     AssertValue,
			Expected: fmt.Sprintf("%s/%s = %q", a.Tree, a.Path, a.Equals),
			Actual:   fmt.Sprintf("%q", got),
		}
	}
	return nil
}

func (h *Harness) assertStatus(a Assertion) error {
	tree, err := h.tree(a.Tree)
	if err != nil {
		return err
	}
	if got := tree.Status().String(); got != a.Equals {
		return &AssertionError{
			Type:     AssertStatus,
			Expected: fmt.Sprintf("%s is %s", a.Tree, a.Equals),
			Actual:   got,
		}
	}
	return nil
}

func (h *Harness) assertCount(a Assertion) error {
	tree, err := h.tree(a.Tree)
	if err != nil {
		return err
	}
	target, err := element(tree, a.Path)
	if err != nil {
		return err
	}
	ns, ok := target.(model.Namespace)
	if !ok {
		return fmt.Errorf("%s %q has no children", target.KeyType(), target.IDShort())
	}
	if got := len(model.Children(ns)); got != a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d children at %s/%s", a.Count, a.Tree, a.Path),
			Actual:   fmt.Sprintf("%d children", got),
		}
	}
	return nil
}

func (h *Harness) assertEqual(a Assertion) error {
	tree, err := h.tree(a.Tree)
	if err != nil {
		return err
	}
	other, err := h.tree(a.Other)
	if err != nil {
		return err
	}
	if !model.DeepEqual(tree, other) {
		return &AssertionError{
			Type:     AssertEqual,
			Expected: fmt.Sprintf("%s equals %s", a.Tree, a.Other),
			Actual:   "trees differ",
		}
	}
	return nil
}

func (h *Harness) assertStored(ctx context.Context, a Assertion) error {
	scheme, identifier, err := backend.SplitLocator(a.Locator)
	if err != nil {
		return err
	}
	if scheme != Scheme {
		return fmt.Errorf("stored assertion needs a %s: locator, got %q", Scheme, a.Locator)
	}
	data, err := h.store.Get(ctx, identifier)
	if err != nil {
		return &AssertionError{
			Type:     AssertStored,
			Expected: fmt.Sprintf("a document under %s", a.Locator),
			Actual:   err.Error(),
		}
	}
	obj, err := h.codec.Decode(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", a.Locator, err)
	}
	got, err := propertyValue(obj, a.Path)
	if err != nil {
		return err
	}
	if got != a.Equals {
		return &AssertionError{
			Type:     AssertStored,
			Expected: fmt.Sprintf("%s %s = %q", a.Locator, a.Path, a.Equals),
			Actual:   fmt.Sprintf("%q", got),
		}
	}
	return nil
}

// assertTraceOrder checks that ops appear in the trace in the given order.
// Ops don't need to be consecutive and may repeat.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(assertion.Ops) && event.Op == assertion.Ops[next] {
			next++
		}
	}
	if next < len(assertion.Ops) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
			Actual:   fmt.Sprintf("matched %v, missing %s", assertion.Ops[:next], assertion.Ops[next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks that op appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == assertion.Op {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result and the
// harness's final trees and backend contents. h may be nil when only
// trace assertions are given.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, h *Harness) []string {
	var errors []string
	ctx := context.Background()

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertValue, AssertStatus, AssertCount, AssertEqual, AssertStored:
			if h == nil {
				err = fmt.Errorf("%s requires the harness state", assertion.Type)
				break
			}
			switch assertion.Type {
			case AssertValue:
				err = h.assertValue(assertion)
			case AssertStatus:
				err = h.assertStatus(assertion)
			case AssertCount:
				err = h.assertCount(assertion)
			case AssertEqual:
				err = h.assertEqual(assertion)
			case AssertStored:
				err = h.assertStored(ctx, assertion)
			}
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %s", i, err.Error()))
		}
	}

	return errors
}
