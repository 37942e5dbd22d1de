package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/codec"
	"github.com/roach88/twinsync/internal/model"
)

// CommitResult is the output of commands that write a document.
type CommitResult struct {
	Locator string `json:"locator"`
	ID      string `json:"id"`
	Kind    string `json:"kind"`
}

func (r CommitResult) String() string {
	return fmt.Sprintf("committed %s %s to %s", r.Kind, r.ID, r.Locator)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	var id, idShort string

	cmd := &cobra.Command{
		Use:   "init <locator>",
		Short: "Create an empty submodel at a locator",
		Long: `Create an empty submodel, bind it to the locator and commit it.

Without --id a urn:uuid identifier is generated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withSession(rootOpts, cmd, f, func(s *session) error {
				if id == "" {
					id = model.NewUUIDIdentifier()
				}
				sm, err := model.NewSubmodel(id, idShort)
				if err != nil {
					return f.Fail("create submodel", err)
				}
				return commitNew(cmd, s, f, sm, args[0])
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "submodel identifier")
	cmd.Flags().StringVar(&idShort, "id-short", "Twin", "submodel id_short")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file> <locator>",
		Short: "Read a JSON or YAML document and commit it to a locator",
		Long: `Decode a document (format chosen by file extension), bind it to the
locator and commit it with the configured codec.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withSession(rootOpts, cmd, f, func(s *session) error {
				obj, err := readDocument(args[0])
				if err != nil {
					return f.Fail("import "+args[0], err)
				}
				return commitNew(cmd, s, f, obj, args[1])
			})
		},
	}
}

func commitNew(cmd *cobra.Command, s *session, f *OutputFormatter, obj model.Identifiable, locator string) error {
	if err := s.engine.Bind(obj, locator); err != nil {
		return f.Fail("bind", err)
	}
	if err := s.engine.Commit(cmd.Context(), obj); err != nil {
		return f.Fail("commit", err)
	}
	return f.Success(CommitResult{Locator: locator, ID: obj.ID(), Kind: string(obj.KeyType())})
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <locator> [file]",
		Short: "Write the document stored at a locator to a file or stdout",
		Long: `Load the document at the locator. With a file argument it is written in
the format implied by the extension; otherwise it is printed with the
configured codec.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withSession(rootOpts, cmd, f, func(s *session) error {
				obj, err := s.engine.Load(cmd.Context(), args[0])
				if err != nil {
					return f.Fail("load", err)
				}
				if len(args) == 1 {
					data, err := s.codec.Encode(obj)
					if err != nil {
						return f.Fail("encode", &backend.SerializationError{Op: "encode", Err: err})
					}
					return f.Success(document(f, args[0], data))
				}
				if err := writeDocument(args[1], obj); err != nil {
					return f.Fail("export "+args[1], err)
				}
				f.VerboseLog("wrote %s", args[1])
				return f.Success(CommitResult{Locator: args[1], ID: obj.ID(), Kind: string(obj.KeyType())})
			})
		},
	}
}

// DocumentResult wraps encoded output for JSON mode.
type DocumentResult struct {
	Locator  string `json:"locator"`
	Document string `json:"document"`
}

// document returns raw bytes for text output and a DocumentResult for JSON.
func document(f *OutputFormatter, locator string, data []byte) any {
	if f.Format == "json" {
		return DocumentResult{Locator: locator, Document: string(data)}
	}
	return data
}

func readDocument(path string) (model.Identifiable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := codec.New(codec.FormatFor(path))
	if err != nil {
		return nil, err
	}
	obj, err := c.Decode(data)
	if err != nil {
		return nil, &backend.SerializationError{Op: "decode", Err: err}
	}
	return obj, nil
}

func writeDocument(path string, obj model.Identifiable) error {
	c, err := codec.New(codec.FormatFor(path))
	if err != nil {
		return err
	}
	data, err := c.Encode(obj)
	if err != nil {
		return &backend.SerializationError{Op: "encode", Err: err}
	}
	return os.WriteFile(path, data, 0o644)
}
