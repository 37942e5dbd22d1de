package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/twinsync/internal/config"
)

// ConfigResult is the output of validate-config.
type ConfigResult struct {
	Valid    bool   `json:"valid"`
	Path     string `json:"path,omitempty"`
	Backends int    `json:"backends"`
	Codec    string `json:"codec"`
}

func (r ConfigResult) String() string {
	name := r.Path
	if name == "" {
		name = "default config"
	}
	return fmt.Sprintf("%s is valid: %d backend(s), %s codec", name, r.Backends, r.Codec)
}

// NewValidateConfigCommand creates the validate-config command.
func NewValidateConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config [file]",
		Short: "Check a configuration file against the schema",
		Long: `Parse the configuration (the argument, or --config), apply defaults and
check it against the embedded CUE schema. Backends are not opened.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			path := rootOpts.Config
			if len(args) == 1 {
				path = args[0]
			}

			var cfg *config.Config
			var err error
			if path == "" {
				cfg = config.Default()
			} else {
				cfg, err = config.Load(path)
			}
			if err != nil {
				return f.Fail("validate "+path, err)
			}

			if f.Verbose {
				out, err := cfg.Marshal()
				if err == nil {
					f.VerboseLog("%s", out)
				}
			}
			return f.Success(ConfigResult{
				Valid:    true,
				Path:     path,
				Backends: len(cfg.Backends),
				Codec:    cfg.Codec,
			})
		},
	}
}
