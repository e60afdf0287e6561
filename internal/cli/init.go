package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/timeline/internal/paths"
	"github.com/mesh-intelligence/timeline/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize timeline storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nif none exists, and initialize the clip store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(a.configDir, 0o755); err != nil {
				return fail(fmt.Errorf("create config directory: %w", err))
			}
			wrote, err := writeConfigIfMissing(paths.ConfigFile(a.configDir), a.cfg.DataDir)
			if err != nil {
				return fail(fmt.Errorf("write config: %w", err))
			}

			store := sqlite.NewBackend()
			if err := store.Attach(a.cfg); err != nil {
				return fail(fmt.Errorf("initialize storage: %w", err))
			}
			if err := store.Detach(); err != nil {
				return fail(fmt.Errorf("finalize storage: %w", err))
			}

			out := cmd.OutOrStdout()
			if wrote {
				fmt.Fprintf(out, "Wrote %s\n", paths.ConfigFile(a.configDir))
			}
			fmt.Fprintf(out, "Timeline initialized in %s\n", a.cfg.DataDir)
			return nil
		},
	}
}
