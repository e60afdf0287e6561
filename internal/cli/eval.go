package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/timeline/internal/session"
	"github.com/mesh-intelligence/timeline/internal/target"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// evalResult is the value of one target at the evaluated time.
type evalResult struct {
	Ref      string          `json:"ref"`
	Kind     types.RefKind   `json:"kind"`
	Value    *float64        `json:"value,omitempty"`
	Position *types.Vec3     `json:"position,omitempty"`
	Rotation *types.Quat     `json:"rotation,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

func (r evalResult) display() string {
	switch {
	case r.Value != nil:
		return formatFloat(*r.Value)
	case r.Position != nil:
		p, q := r.Position, r.Rotation
		return fmt.Sprintf("pos (%s, %s, %s) rot (%s, %s, %s, %s)",
			formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z),
			formatFloat(q.X), formatFloat(q.Y), formatFloat(q.Z), formatFloat(q.W))
	case r.Payload != nil:
		return string(r.Payload)
	default:
		return "-"
	}
}

func evaluate(tg target.Target, at float64) evalResult {
	res := evalResult{Ref: tg.Ref().Key().String(), Kind: tg.Ref().Kind()}
	switch t := tg.(type) {
	case *target.ScalarTarget:
		v := t.Evaluate(at)
		res.Value = &v
	case *target.TransformTarget:
		p, q := t.EvaluatePosition(at), t.EvaluateRotation(at)
		res.Position, res.Rotation = &p, &q
	case *target.TriggerTarget:
		if payload, ok := t.Lookup(at); ok {
			res.Payload = payload
		}
	}
	return res
}

func newEvalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <clip-id> <time>",
		Short: "Evaluate every target of a clip at a time",
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
				results := make([]evalResult, 0, c.Len())
				for _, tg := range c.Targets() {
					results = append(results, evaluate(tg, at))
				}
				w := cmd.OutOrStdout()
				if a.jsonOutput(w) {
					return writeJSON(w, results)
				}
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{string(r.Kind), r.Ref, r.display()})
				}
				return writeTable(w, []string{"KIND", "TARGET", "VALUE"}, rows)
			})
		},
	}
}
