// Package config loads the twinsync configuration file.
//
// A configuration names the codec used for documents and one backend per
// locator scheme:
//
//	codec: json
//	log_level: info
//	metrics: false
//	fetch_policy: remote-wins
//	backends:
//	  - scheme: file
//	    kind: file
//	    path: ./twins
//	  - scheme: db
//	    kind: sqlite
//	    path: ./twins.db
//
// Files are parsed as YAML, completed with defaults and then checked
// against the embedded CUE schema (schema.cue).
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/twinsync/internal/engine"
)

//go:embed schema.cue
var schemaSource []byte

// Backend kinds.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindBadger = "badger"
)

// Config is the parsed configuration. The json tags are the field names
// the CUE schema sees.
type Config struct {
	Codec       string    `yaml:"codec" json:"codec"`
	LogLevel    string    `yaml:"log_level" json:"log_level"`
	Metrics     bool      `yaml:"metrics" json:"metrics"`
	FetchPolicy string    `yaml:"fetch_policy" json:"fetch_policy"`
	Backends    []Backend `yaml:"backends" json:"backends"`

	// BaseDir anchors relative backend paths. Load sets it to the
	// directory holding the file.
	BaseDir string `yaml:"-" json:"-"`
}

// Backend configures the adapter registered for one scheme.
type Backend struct {
	Scheme string `yaml:"scheme" json:"scheme"`
	Kind   string `yaml:"kind" json:"kind"`
	Path   string `yaml:"path" json:"path"`

	// InMemory and GCInterval apply to badger only.
	InMemory   bool   `yaml:"in_memory" json:"in_memory"`
	GCInterval string `yaml:"gc_interval" json:"gc_interval"`
}

// Default returns the configuration used when no file is given: JSON
// documents and a single in-memory backend under the "mem" scheme.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	c.BaseDir = abs
	return c, nil
}

// Parse decodes YAML, applies defaults and validates. Unknown keys are
// rejected. Empty input yields Default().
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Codec == "" {
		c.Codec = "json"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.FetchPolicy == "" {
		c.FetchPolicy = engine.RemoteWins.String()
	}
	if len(c.Backends) == 0 {
		c.Backends = []Backend{{Scheme: "mem", Kind: KindMemory}}
	}
	for i := range c.Backends {
		c.Backends[i].Scheme = strings.ToLower(c.Backends[i].Scheme)
	}
}

// FieldError is one schema violation.
type FieldError struct {
	// Path is the dotted field path, e.g. "backends.0.path".
	Path    string
	Message string
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationError lists every violation found in a configuration.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "invalid config: " + strings.Join(parts, "; ")
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks c against the CUE schema, then checks that schemes are
// unique.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := def.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Fields: fieldErrors(err)}
	}

	seen := make(map[string]int, len(c.Backends))
	var dups []FieldError
	for i, b := range c.Backends {
		if j, ok := seen[b.Scheme]; ok {
			dups = append(dups, FieldError{
				Path:    fmt.Sprintf("backends.%d.scheme", i),
				Message: fmt.Sprintf("scheme %q already used by backends.%d", b.Scheme, j),
			})
			continue
		}
		seen[b.Scheme] = i
	}
	if len(dups) > 0 {
		return &ValidationError{Fields: dups}
	}
	return nil
}

func fieldErrors(err error) []FieldError {
	var out []FieldError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		out = append(out, FieldError{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	if len(out) == 0 {
		out = append(out, FieldError{Message: err.Error()})
	}
	return out
}

// Policy returns the configured fetch policy.
func (c *Config) Policy() engine.Policy {
	// Validate has already restricted the value.
	p, _ := engine.ParsePolicy(c.FetchPolicy)
	return p
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Marshal renders c as YAML, e.g. for "twinsync config show".
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.BaseDir == "" {
		return path
	}
	return filepath.Join(c.BaseDir, path)
}
