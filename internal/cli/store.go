package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// ListResult is the output of the ls command.
type ListResult struct {
	Scheme   string   `json:"scheme"`
	Locators []string `json:"locators"`
}

func (r ListResult) String() string {
	return strings.Join(r.Locators, "\n")
}

// NewListCommand creates the ls command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <scheme>",
		Short: "List the locators stored in a backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withSession(rootOpts, cmd, f, func(s *session) error {
				locators, err := s.engine.List(cmd.Context(), args[0])
				if err != nil {
					return f.Fail("list", err)
				}
				if locators == nil {
					locators = []string{}
				}
				if len(locators) == 0 && f.Format != "json" {
					f.VerboseLog("%s is empty", args[0])
					return nil
				}
				return f.Success(ListResult{Scheme: args[0], Locators: locators})
			})
		},
	}
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <locator>...",
		Short: "Delete stored documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withSession(rootOpts, cmd, f, func(s *session) error {
				for _, locator := range args {
					if err := s.engine.Delete(cmd.Context(), locator); err != nil {
						return f.Fail("delete", err)
					}
					f.VerboseLog("deleted %s", locator)
				}
				return f.Success(ListResult{Locators: args})
			})
		},
	}
}
