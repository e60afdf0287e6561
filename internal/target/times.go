package target

import (
	"sort"

	"github.com/mesh-intelligence/timeline/internal/curve"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// addEdges keys 0 and length on a non-empty curve where no keyframe sits
// there, using the curve value at that time. Reports whether it added any.
func addEdges(c *curve.Curve, length float64) bool {
	if c.Len() == 0 {
		return false
	}
	added := false
	for _, edge := range []float64{0, length} {
		if c.KeyframeBinarySearch(edge) != -1 {
			continue
		}
		c.SetKeyframe(edge, c.Evaluate(edge), types.CurveTypeLinear)
		added = true
	}
	return added
}

// unionTimes merges the keyframe times of curves into one increasing,
// duplicate-free slice.
func unionTimes(curves ...*curve.Curve) []float64 {
	seen := make(map[float64]struct{})
	var times []float64
	for _, c := range curves {
		for _, t := range c.GetAllKeyframeTimes() {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			times = append(times, t)
		}
	}
	sort.Float64s(times)
	return times
}
