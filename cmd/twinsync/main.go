// Command twinsync builds, inspects and synchronizes digital twin documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/twinsync/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		code := cli.GetExitCode(err)
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Not reported by a command (flag or argument errors).
			fmt.Fprintln(os.Stderr, "Error:", err)
			code = cli.ExitCommandError
		}
		stop()
		os.Exit(code)
	}
}
