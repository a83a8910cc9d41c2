package telemetry

// Normalizer converts raw telemetry frames into the canonical sample schema.
// It is a total transform: any RawSample produces a valid NormalizedSample.
type Normalizer struct{}

// Normalize applies unit coercion and sector inference to a raw frame.
func (n Normalizer) Normalize(raw RawSample) NormalizedSample {
	return NormalizedSample{
		LapDistance: raw.LapDistance,
		LapTime:     raw.LapTime,
		Sector:      n.resolveSector(raw),
		Speed:       raw.Speed,
		EngineRevs:  raw.EngineRPM,
		Throttle:    percentValue(raw.Throttle),
		Brake:       percentValue(raw.Brake),
		Steer:       steerValue(raw.Steering),
		Gear:        raw.Gear,
		X:           copyOptionalFloat(raw.PositionX),
		Y:           copyOptionalFloat(raw.PositionY),
		Z:           copyOptionalFloat(raw.PositionZ),
	}
}

// percentValue coerces throttle/brake readings to a percentage. Sources report
// either a 0-1 fraction or an explicit percentage; magnitudes within 1.5 are
// assumed fractional.
func percentValue(value float64) float64 {
	if value >= -1.5 && value <= 1.5 {
		value *= 100
	}

	return clamp(value, 0, 100)
}

// steerValue coerces a steering reading to [-100, 100]. Steering typically
// arrives as a -1..1 ratio.
func steerValue(value float64) float64 {
	if value >= -2 && value <= 2 {
		value *= 100
	}

	return clamp(value, -100, 100)
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

func (n Normalizer) resolveSector(raw RawSample) int {
	if raw.Sector != nil {
		sector := *raw.Sector

		// 1-based sources are shifted down.
		if sector > 0 {
			sector--
		}

		if sector < 0 {
			sector = 0
		}

		if len(raw.SectorBoundaries) > 0 && sector > len(raw.SectorBoundaries)-1 {
			sector = len(raw.SectorBoundaries) - 1
		}

		return sector
	}

	if len(raw.SectorBoundaries) > 0 {
		for i, boundary := range raw.SectorBoundaries {
			if raw.LapDistance < boundary {
				return i
			}
		}

		return len(raw.SectorBoundaries) - 1
	}

	if raw.TrackLength > 0 {
		progress := clamp(raw.LapDistance/raw.TrackLength, 0, 0.9999)

		return int(progress * 3)
	}

	return 0
}

func copyOptionalFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}

	out := *value

	return &out
}
