package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/timeline/internal/session"
)

func newFrameCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Move keyframes between clips through the clipboard",
	}
	cmd.AddCommand(newFrameCopyCmd(a))
	return cmd
}

func newFrameCopyCmd(a *app) *cobra.Command {
	var cut bool
	var until float64
	cmd := &cobra.Command{
		Use:   "copy <src-clip> <time> <dst-clip> <at>",
		Short: "Copy the keyframes at a time in one clip to a time in another",
		Long: "Copy the keyframes every target of the source clip holds at <time> and\n" +
			"paste them at <at> in the destination clip. Targets are matched by the ref\n" +
			"they animate; refs the destination does not animate are skipped.\n" +
			"With --until the range [time, until] is copied and pasted as one block.",
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseFloatArg("time", args[1])
			if err != nil {
				return err
			}
			at, err := parseFloatArg("at", args[3])
			if err != nil {
				return err
			}
			if cut && cmd.Flags().Changed("until") {
				return usage("--cut and --until cannot be combined")
			}
			return a.withSession(func(s *session.Session) error {
				src, err := s.LoadClip(args[0])
				if err != nil {
					return err
				}
				dst, err := s.LoadClip(args[2])
				if err != nil {
					return err
				}

				board := s.Clipboard()
				var copied int
				switch {
				case cut:
					if copied, err = board.Cut(src.Selected(), from); err != nil {
						return err
					}
				case cmd.Flags().Changed("until"):
					copied = board.CopyRange(src.Selected(), from, until)
				default:
					copied = board.Copy(src.Selected(), from)
				}

				pasted, err := board.Paste(dst, at)
				if err != nil {
					return err
				}
				if cut {
					if err := s.SaveClip(src); err != nil {
						return err
					}
				}
				if pasted > 0 {
					if err := s.SaveClip(dst); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Copied %d, pasted %d keyframes\n", copied, pasted)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&cut, "cut", false, "remove the copied keyframes from the source clip")
	cmd.Flags().Float64Var(&until, "until", 0, "copy every keyframe time in [time, until]")
	return cmd
}
