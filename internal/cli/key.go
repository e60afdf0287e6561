package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/timeline/internal/session"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Edit keyframes",
	}
	cmd.AddCommand(newKeySetCmd(a), newKeyDeleteCmd(a))
	return cmd
}

func newKeySetCmd(a *app) *cobra.Command {
	var curveName string
	cmd := &cobra.Command{
		Use:   "set <clip-id> <owner> <component> <param> <time> <value>",
		Short: "Key a float parameter at a time",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseFloatArg("time", args[4])
			if err != nil {
				return err
			}
			value, err := parseFloatArg("value", args[5])
			if err != nil {
				return err
			}
			return a.withSession(func(s *session.Session) error {
				ct := s.Animation().CurveTypeOrDefault()
				if curveName != "" {
					if ct, err = types.ParseCurveType(curveName); err != nil {
						return fmt.Errorf("curve %q: %w", curveName, err)
					}
				}
				c, err := s.LoadClip(args[0])
				if err != nil {
					return err
				}
				ref := s.Registry().GetOrCreateParam(args[1], args[2], args[3])
				tg := c.AddParam(ref)
				tg.SetKeyframe(at, value, ct)
				if err := s.SaveClip(c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s @ %s = %s (%s)\n", ref.LongName(), formatFloat(at), formatFloat(value), ct)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&curveName, "curve", "", "curve type: linear, smooth, flat, flat_linear, linear_flat, bounce, copy_previous, leave_as_is")
	return cmd
}

func newKeyDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <clip-id> <time>",
		Short: "Delete the keyframes of every target at a time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseFloatArg("time", args[1])
			if err != nil {
				return err
			}
			return a.withSession(func(s *session.Session) error {
				c, err := s.LoadClip(args[0])
				if err != nil {
					return err
				}
				n := 0
				for _, tg := range c.Targets() {
					if tg.HasKeyframe(at) {
						tg.DeleteFrame(at)
						n++
					}
				}
				if n > 0 {
					if err := s.SaveClip(c); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d keyframes at %s\n", n, formatFloat(at))
				return nil
			})
		},
	}
}
