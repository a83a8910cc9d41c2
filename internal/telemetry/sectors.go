package telemetry

import "sort"

// defaultSectorCount is assumed when a lap carries no split data at all.
const defaultSectorCount = 3

// finalBoundaryFraction is how much of the track the last detected boundary
// must cover before it is snapped to track length instead of a new boundary
// being appended.
const finalBoundaryFraction = 0.95

// DetectSectorBoundaries infers sector-end distances from a completed lap.
//
// Each sector's cumulative split time stays 0.0 until the sector completes,
// then becomes positive. The lap distance at the first sample where a split
// crosses from zero to positive is that sector's boundary. The crossing is
// edge-triggered: once a boundary is recorded, later samples cannot move it,
// even if a noisy source re-reports the split as zero.
//
// With no detectable boundaries and a known track length, the lap falls back
// to three equal-length sectors. The returned count equals the number of
// boundaries, defaulting to 3.
func DetectSectorBoundaries(samples []RawSample, trackLength float64) ([]float64, int) {
	ordered := make([]RawSample, len(samples))
	copy(ordered, samples)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LapDistance < ordered[j].LapDistance
	})

	recorded := make(map[int]float64)
	maxSplits := 0

	for _, sample := range ordered {
		if len(sample.SectorSplits) > maxSplits {
			maxSplits = len(sample.SectorSplits)
		}

		for i, split := range sample.SectorSplits {
			if _, ok := recorded[i]; ok {
				continue
			}

			if split > 0 {
				recorded[i] = sample.LapDistance
			}
		}
	}

	var boundaries []float64

	for i := 0; i < maxSplits; i++ {
		if distance, ok := recorded[i]; ok {
			boundaries = append(boundaries, distance)
		}
	}

	sort.Float64s(boundaries)

	if len(boundaries) == 0 {
		if trackLength > 0 {
			return []float64{trackLength / 3, trackLength * 2 / 3, trackLength}, defaultSectorCount
		}

		return nil, defaultSectorCount
	}

	if trackLength > 0 {
		if boundaries[len(boundaries)-1] < trackLength*finalBoundaryFraction {
			boundaries = append(boundaries, trackLength)
		} else {
			boundaries[len(boundaries)-1] = trackLength
		}
	}

	return boundaries, len(boundaries)
}
