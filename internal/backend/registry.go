package backend

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var (
	locatorPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z+\-.]*):`)
	schemePattern  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z+\-.]*$`)
)

// Registry maps URI schemes to adapters. Schemes are case-insensitive.
// A Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register makes a responsible for scheme. A scheme can be registered once.
func (r *Registry) Register(scheme string, a Adapter) error {
	if !schemePattern.MatchString(scheme) {
		return fmt.Errorf("register backend: invalid scheme %q", scheme)
	}
	scheme = strings.ToLower(scheme)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.adapters[scheme]; ok {
		return fmt.Errorf("register backend: scheme %q already registered", scheme)
	}
	r.adapters[scheme] = a
	return nil
}

// Resolve returns the adapter for locator's scheme and the identifier to
// pass to it.
func (r *Registry) Resolve(locator string) (Adapter, string, error) {
	scheme, identifier, err := SplitLocator(locator)
	if err != nil {
		return nil, "", err
	}

	r.mu.RLock()
	a, ok := r.adapters[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, "", &UnknownBackendError{Scheme: scheme, Locator: locator}
	}
	return a, identifier, nil
}

// Has reports whether a locator's scheme is registered.
func (r *Registry) Has(locator string) bool {
	_, _, err := r.Resolve(locator)
	return err == nil
}

// Schemes returns the registered schemes, sorted.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.adapters)
}

// Close closes every registered adapter that implements io.Closer.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, s := range sortedKeys(r.adapters) {
		if c, ok := r.adapters[s].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s backend: %w", s, err))
			}
		}
	}
	return errors.Join(errs...)
}

// SplitLocator splits "scheme:identifier" into its lower-cased scheme and
// the untouched identifier.
func SplitLocator(locator string) (scheme, identifier string, err error) {
	m := locatorPattern.FindStringSubmatch(locator)
	if m == nil {
		return "", "", &UnknownBackendError{Locator: locator}
	}
	return strings.ToLower(m[1]), locator[len(m[0]):], nil
}

func sortedKeys(m map[string]Adapter) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
