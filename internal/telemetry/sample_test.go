package telemetry

import "testing"

func TestSampleFromFields(t *testing.T) {
	t.Run("snake case names", func(t *testing.T) {
		sample := SampleFromFields(map[string]interface{}{
			"lap":           3,
			"lap_distance":  1234.5,
			"lap_time":      45.678,
			"last_lap_time": 92.1,
			"speed":         187.2,
			"engine_rpm":    7200.0,
			"throttle":      0.85,
			"brake":         0.0,
			"steering":      -0.12,
			"gear":          4,
			"track_length":  5400.0,
			"position_x":    102.5,
			"position_z":    -80.0,
			"driver_name":   "P. Driver",
			"control":       2,
			"sector1_time":  31.2,
			"sector2_time":  0.0,
			"sector3_time":  0.0,
		})

		if sample.Lap != 3 || !compareFloatsTolerance(sample.LapDistance, 1234.5) {
			t.Logf("Expected lap/distance to parse, was: %d / %f", sample.Lap, sample.LapDistance)
			t.Fail()
		}

		if sample.Control != ControlRemote {
			t.Logf("Expected remote control type, was: %s", sample.Control)
			t.Fail()
		}

		if len(sample.SectorSplits) != 3 || !compareFloatsTolerance(sample.SectorSplits[0], 31.2) {
			t.Logf("Expected 3 sector splits, was: %v", sample.SectorSplits)
			t.Fail()
		}

		if sample.PositionX == nil || !compareFloatsTolerance(*sample.PositionX, 102.5) {
			t.Logf("Expected position x to parse")
			t.Fail()
		}

		if sample.PositionY != nil {
			t.Logf("Expected absent position y to stay nil")
			t.Fail()
		}
	})

	t.Run("header style names", func(t *testing.T) {
		sample := SampleFromFields(map[string]interface{}{
			"Lap":              2,
			"LapDistance [m]":  800.0,
			"Speed [km/h]":     140.0,
			"EngineRevs [rpm]": 6500.0,
			"Gear [int]":       3,
			"TrackLen [m]":     5400.0,
		})

		if sample.Lap != 2 || !compareFloatsTolerance(sample.LapDistance, 800) {
			t.Logf("Expected header style names to resolve, was: %d / %f", sample.Lap, sample.LapDistance)
			t.Fail()
		}

		if !compareFloatsTolerance(sample.TrackLength, 5400) {
			t.Logf("Expected track length to resolve, was: %f", sample.TrackLength)
			t.Fail()
		}
	})

	t.Run("numeric coercion", func(t *testing.T) {
		sample := SampleFromFields(map[string]interface{}{
			"gear":         2.7,
			"lap_distance": "1500.5",
			"speed":        int64(120),
		})

		if sample.Gear != 3 {
			t.Logf("Expected gear 2.7 to round to 3, was: %d", sample.Gear)
			t.Fail()
		}

		if !compareFloatsTolerance(sample.LapDistance, 1500.5) {
			t.Logf("Expected string distance to parse, was: %f", sample.LapDistance)
			t.Fail()
		}

		if !compareFloatsTolerance(sample.Speed, 120) {
			t.Logf("Expected integer speed to parse, was: %f", sample.Speed)
			t.Fail()
		}
	})

	t.Run("sector boundaries from decoded json", func(t *testing.T) {
		// encoding/json decodes arrays as []interface{}, never []float64.
		sample := SampleFromFields(map[string]interface{}{
			"sector_boundaries": []interface{}{1850.0, 3650.0, 5400},
		})

		if len(sample.SectorBoundaries) != 3 {
			t.Logf("Expected 3 sector boundaries, was: %v", sample.SectorBoundaries)
			t.Fail()
		} else if !compareFloatsTolerance(sample.SectorBoundaries[0], 1850) ||
			!compareFloatsTolerance(sample.SectorBoundaries[1], 3650) ||
			!compareFloatsTolerance(sample.SectorBoundaries[2], 5400) {
			t.Logf("Expected boundary values to coerce, was: %v", sample.SectorBoundaries)
			t.Fail()
		}

		typed := SampleFromFields(map[string]interface{}{
			"sector_boundaries": []float64{1800, 3600},
		})

		if len(typed.SectorBoundaries) != 2 {
			t.Logf("Expected typed boundaries to pass through, was: %v", typed.SectorBoundaries)
			t.Fail()
		}
	})

	t.Run("defaults", func(t *testing.T) {
		sample := SampleFromFields(map[string]interface{}{})

		if sample.Control != ControlNobody {
			t.Logf("Expected missing control to default to nobody, was: %s", sample.Control)
			t.Fail()
		}

		if sample.Sector != nil {
			t.Logf("Expected missing sector to stay nil")
			t.Fail()
		}

		if sample.Lap != 0 || sample.LapDistance != 0 {
			t.Logf("Expected numeric defaults to be zero")
			t.Fail()
		}
	})
}

func TestNormalizedSampleEqual(t *testing.T) {
	base := NormalizedSample{
		LapDistance: 100,
		LapTime:     5.5,
		Sector:      1,
		Speed:       180,
		EngineRevs:  7000,
		Throttle:    80,
		Gear:        4,
		X:           floatPtr(10),
		Y:           floatPtr(2.5),
		Z:           floatPtr(-5),
	}

	same := base
	same.X = floatPtr(10)
	same.Y = floatPtr(2.5)
	same.Z = floatPtr(-5)

	if !base.Equal(same) {
		t.Logf("Expected samples with equal pointer values to compare equal")
		t.Fail()
	}

	differentValue := same
	differentValue.X = floatPtr(11)

	if base.Equal(differentValue) {
		t.Logf("Expected a changed position to compare unequal")
		t.Fail()
	}

	differentHeight := same
	differentHeight.Y = floatPtr(3.0)

	if base.Equal(differentHeight) {
		t.Logf("Expected a changed height to compare unequal")
		t.Fail()
	}

	missingPosition := same
	missingPosition.Z = nil

	if base.Equal(missingPosition) {
		t.Logf("Expected a missing position to compare unequal")
		t.Fail()
	}

	differentField := same
	differentField.Gear = 5

	if base.Equal(differentField) {
		t.Logf("Expected a changed gear to compare unequal")
		t.Fail()
	}
}
