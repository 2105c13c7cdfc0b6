package rig

import (
	"github.com/montanaflynn/stats"
)

// BaselineStats summarizes the distances of the non-reference cameras to the reference.
type BaselineStats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Baselines returns distance statistics over the non-reference cameras. ok is false for a rig
// without any.
func (d *Descriptor) Baselines() (BaselineStats, bool) {
	var distances stats.Float64Data
	for _, cam := range d.Cameras {
		if !cam.Reference {
			distances = append(distances, cam.Distance)
		}
	}
	if len(distances) == 0 {
		return BaselineStats{}, false
	}
	// the only error stats reports is for empty input.
	minDist, _ := distances.Min()
	maxDist, _ := distances.Max()
	mean, _ := distances.Mean()
	stdDev, _ := distances.StandardDeviation()
	return BaselineStats{Count: len(distances), Min: minDist, Max: maxDist, Mean: mean, StdDev: stdDev}, true
}
