package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/codec"
	"github.com/roach88/twinsync/internal/model"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <locator> [path]",
		Short: "Print a stored document or one element of it",
		Long: `Print the document stored at the locator. A path such as Motor/Speed or
Readings/0 selects a single element (list children by index).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withSession(rootOpts, cmd, f, func(s *session) error {
				obj, err := s.engine.Load(cmd.Context(), args[0])
				if err != nil {
					return f.Fail("load", err)
				}
				path := ""
				if len(args) == 2 {
					path = args[1]
				}
				e, err := element(obj, path)
				if err != nil {
					return f.Fail("lookup "+path, err)
				}
				data, err := s.codec.EncodeElement(e)
				if err != nil {
					return f.Fail("encode", &backend.SerializationError{Op: "encode", Err: err})
				}
				return f.Success(document(f, args[0], data))
			})
		},
	}
}

// SetResult is the output of the set command.
type SetResult struct {
	Locator string `json:"locator"`
	Path    string `json:"path"`
	Old     string `json:"old"`
	New     string `json:"new"`
}

func (r SetResult) String() string {
	return fmt.Sprintf("%s %s: %s -> %s", r.Locator, r.Path, r.Old, r.New)
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <locator> <path> <value>",
		Short: "Change a property value and commit",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withSession(rootOpts, cmd, f, func(s *session) error {
				locator, path, value := args[0], args[1], args[2]
				obj, err := s.engine.Load(cmd.Context(), locator)
				if err != nil {
					return f.Fail("load", err)
				}
				p, err := property(obj, path)
				if err != nil {
					return f.Fail("lookup "+path, err)
				}
				old := p.Value()
				if err := p.SetValue(value); err != nil {
					return f.Fail("set "+path, err)
				}
				f.VerboseLog("%s is %s", locator, obj.Status())
				if err := s.engine.Commit(cmd.Context(), p); err != nil {
					return f.Fail("commit", err)
				}
				return f.Success(SetResult{Locator: locator, Path: path, Old: old, New: value})
			})
		},
	}
}

// DigestResult is the output of the digest command.
type DigestResult struct {
	Locator string `json:"locator"`
	Digest  string `json:"digest"`
}

func (r DigestResult) String() string { return r.Digest + "  " + r.Locator }

// NewDigestCommand creates the digest command.
func NewDigestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "digest <locator>...",
		Short: "Print a format-independent content hash of stored documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withSession(rootOpts, cmd, f, func(s *session) error {
				for _, locator := range args {
					obj, err := s.engine.Load(cmd.Context(), locator)
					if err != nil {
						return f.Fail("load", err)
					}
					d, err := codec.Digest(obj)
					if err != nil {
						return f.Fail("digest", &backend.SerializationError{Op: "encode", Err: err})
					}
					if err := f.Success(DigestResult{Locator: locator, Digest: d}); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

// ResolveResult is the output of the resolve command.
type ResolveResult struct {
	Reference string `json:"reference"`
	Kind      string `json:"kind"`
	Source    string `json:"source"`
	Document  string `json:"document"`
}

func (r ResolveResult) String() string {
	return fmt.Sprintf("%s -> %s in %s\n%s", r.Reference, r.Kind, r.Source, r.Document)
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <reference> <locator>...",
		Short: "Resolve a model reference against stored documents",
		Long: `Load every locator into one object store and resolve the reference
against it. References use the form "[Submodel]urn:ex:sm1, [Property]P1".`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withSession(rootOpts, cmd, f, func(s *session) error {
				ref, err := model.ParseReference(args[0])
				if err != nil {
					return f.Fail("parse reference", err)
				}
				store, err := model.NewObjectStore()
				if err != nil {
					return f.Fail("object store", err)
				}
				for _, locator := range args[1:] {
					obj, err := s.engine.Load(cmd.Context(), locator)
					if err != nil {
						return f.Fail("load", err)
					}
					if err := store.Add(obj); err != nil {
						return f.Fail("load "+locator, err)
					}
				}

				target, err := ref.Resolve(store)
				if err != nil {
					return f.Fail("resolve", err)
				}
				canonical, err := model.ModelReferenceFrom(target)
				if err != nil {
					return f.Fail("resolve", err)
				}
				data, err := s.codec.EncodeElement(target)
				if err != nil {
					return f.Fail("encode", &backend.SerializationError{Op: "encode", Err: err})
				}
				src, _ := model.FindSource(target)
				return f.Success(ResolveResult{
					Reference: canonical.String(),
					Kind:      string(target.KeyType()),
					Source:    src.Source(),
					Document:  string(data),
				})
			})
		},
	}
}
