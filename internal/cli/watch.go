package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/timeline/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print changes to the clip store until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
				return fail(fmt.Errorf("create data directory: %w", err))
			}
			w, err := watch.New(a.cfg.DataDir)
			if err != nil {
				return fail(err)
			}
			defer w.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s\n", a.cfg.DataDir)
			ctx := cmd.Context()
			for {
				select {
				case <-ctx.Done():
					return nil
				case c, ok := <-w.Changes():
					if !ok {
						return nil
					}
					fmt.Fprintf(out, "%s %s\n", time.Now().Format("15:04:05"), c)
				}
			}
		},
	}
}
