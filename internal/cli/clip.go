package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/timeline/internal/clip"
	"github.com/mesh-intelligence/timeline/internal/session"
	"github.com/mesh-intelligence/timeline/internal/target"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

func newClipCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clip",
		Short: "Manage animation clips",
	}
	cmd.AddCommand(
		newClipListCmd(a),
		newClipShowCmd(a),
		newClipCreateCmd(a),
		newClipDeleteCmd(a),
		newClipImportCmd(a),
		newClipExportCmd(a),
		newClipValidateCmd(a),
		newClipEdgesCmd(a),
	)
	return cmd
}

// clipSummary is the list view of a stored clip.
type clipSummary struct {
	ID      string  `json:"clip_id"`
	Name    string  `json:"name"`
	Layer   string  `json:"layer"`
	Length  float64 `json:"length"`
	Targets int     `json:"targets"`
}

func newClipListCmd(a *app) *cobra.Command {
	var name, layer string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored clips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := map[string]any{}
			if name != "" {
				filter["name"] = name
			}
			if layer != "" {
				filter["layer"] = layer
			}
			return a.withSession(func(s *session.Session) error {
				recs, err := s.List(filter)
				if err != nil {
					return err
				}
				out := make([]clipSummary, 0, len(recs))
				for _, r := range recs {
					out = append(out, clipSummary{r.ClipID, r.Name, r.Layer, r.Length, len(r.Targets)})
				}
				w := cmd.OutOrStdout()
				if a.jsonOutput(w) {
					return writeJSON(w, out)
				}
				rows := make([][]string, 0, len(out))
				for _, c := range out {
					rows = append(rows, []string{c.ID, c.Name, c.Layer, formatFloat(c.Length), strconv.Itoa(c.Targets)})
				}
				return writeTable(w, []string{"ID", "NAME", "LAYER", "LENGTH", "TARGETS"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only clips with this name")
	cmd.Flags().StringVar(&layer, "layer", "", "only clips on this layer")
	return cmd
}

func newClipShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <clip-id>",
		Short: "Show a clip and its targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				c, err := s.LoadClip(args[0])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if a.jsonOutput(w) {
					return writeJSON(w, c.Record())
				}
				fmt.Fprintf(w, "ID:      %s\n", c.ID())
				fmt.Fprintf(w, "Name:    %s\n", c.Name())
				fmt.Fprintf(w, "Layer:   %s\n", c.Layer())
				fmt.Fprintf(w, "Length:  %s\n", formatFloat(c.Length()))
				fmt.Fprintf(w, "Created: %s\n", c.CreatedAt().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(w, "Updated: %s\n\n", c.UpdatedAt().Format("2006-01-02 15:04:05"))
				return writeTable(w, []string{"KIND", "TARGET", "KEYS", "TIMES"}, targetRows(c.Targets()))
			})
		},
	}
}

func targetRows(targets []target.Target) [][]string {
	rows := make([][]string, 0, len(targets))
	for _, tg := range targets {
		times := tg.GetAllKeyframeTimes()
		rows = append(rows, []string{
			string(tg.Ref().Kind()),
			tg.Ref().LongName(),
			strconv.Itoa(len(times)),
			formatTimes(times),
		})
	}
	return rows
}

func newClipCreateCmd(a *app) *cobra.Command {
	var layer string
	var length float64
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				c, err := s.NewClip(args[0], layer, length)
				if err != nil {
					return err
				}
				if err := s.SaveClip(c); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.ID())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&layer, "layer", "", "layer the clip belongs to")
	cmd.Flags().Float64Var(&length, "length", 0, "clip length in seconds (default from config)")
	return cmd
}

func newClipDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <clip-id>",
		Short: "Delete a stored clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				if err := s.DeleteClip(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newClipImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import a clip from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := clip.ReadYAMLFile(args[0])
			if err != nil {
				return fail(fmt.Errorf("import %s: %w", args[0], err))
			}
			return a.withSession(func(s *session.Session) error {
				c, err := s.Import(rec)
				if err != nil {
					return err
				}
				if err := s.SaveClip(c); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.ID())
				return nil
			})
		},
	}
}

func newClipExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <clip-id> <file.yaml|->",
		Short: "Export a clip to a YAML file, or stdout with -",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				c, err := s.LoadClip(args[0])
				if err != nil {
					return err
				}
				if args[1] == "-" {
					return clip.WriteYAML(cmd.OutOrStdout(), c.Record())
				}
				return clip.WriteYAMLFile(args[1], c.Record())
			})
		},
	}
}

func newClipValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <clip-id>",
		Short: "Check every target holds enough keyframes to play",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				c, err := s.LoadClip(args[0])
				if err != nil {
					return err
				}
				errs := s.Validate(c)
				w := cmd.OutOrStdout()
				for _, err := range errs {
					fmt.Fprintln(w, err)
				}
				if len(errs) > 0 {
					return usage("%d of %d targets invalid: %w", len(errs), c.Len(), types.ErrNotEnoughKeyframes)
				}
				fmt.Fprintf(w, "%s: %d targets ok\n", c.Name(), c.Len())
				return nil
			})
		},
	}
}

func newClipEdgesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edges <clip-id>",
		Short: "Key every target at the start and end of the clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				c, err := s.LoadClip(args[0])
				if err != nil {
					return err
				}
				c.AddEdgeFramesIfMissing()
				if !c.Dirty() {
					fmt.Fprintln(cmd.OutOrStdout(), "No edge frames missing")
					return nil
				}
				c.Rebuild()
				if err := s.SaveClip(c); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Added edge frames")
				return nil
			})
		},
	}
}
