package telemetry

import (
	"math"
	"strconv"
)

// DriverControl describes who (or what) is driving a vehicle in the session.
type DriverControl int

const (
	ControlNobody DriverControl = -1
	ControlPlayer DriverControl = 0
	ControlAI     DriverControl = 1
	ControlRemote DriverControl = 2
	ControlReplay DriverControl = 3
)

func (c DriverControl) String() string {
	switch c {
	case ControlNobody:
		return "nobody"
	case ControlPlayer:
		return "player"
	case ControlAI:
		return "ai"
	case ControlRemote:
		return "remote"
	case ControlReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// RawSample is the canonical form of one telemetry frame as produced by an
// acquisition source. Field lookup by name happens once, in SampleFromFields;
// everything downstream works with this record only.
type RawSample struct {
	Lap         int
	LapDistance float64
	LapTime     float64
	// LastLapTime is the duration of the most recently completed lap. At a
	// lap boundary the in-progress LapTime has already reset, so completed
	// lap durations must come from here.
	LastLapTime float64
	Speed       float64
	EngineRPM   float64
	Throttle    float64
	Brake       float64
	Steering    float64
	Gear        int

	// Sector is the explicit sector index if the source reports one. Some
	// sources report it 1-based.
	Sector *int

	PositionX *float64
	PositionY *float64
	PositionZ *float64

	TrackLength float64

	// SectorSplits holds cumulative split times per sector. A sector's split
	// stays 0.0 until that sector completes, then becomes positive.
	SectorSplits []float64

	// SectorBoundaries holds known sector-end distances for this track, when
	// a previous lap has established them.
	SectorBoundaries []float64

	DriverName   string
	Control      DriverControl
	Position     int
	CarName      string
	CarModel     string
	CarClass     string
	TeamName     string
	Manufacturer string
}

// NormalizedSample is the canonical per-instant record buffered for export.
// Throttle and Brake are percentages in [0, 100], Steer is in [-100, 100].
type NormalizedSample struct {
	LapDistance float64
	LapTime     float64
	Sector      int
	Speed       float64
	EngineRevs  float64
	Throttle    float64
	Brake       float64
	Steer       float64
	Gear        int

	X *float64
	Y *float64
	Z *float64
}

// Equal reports whether two normalized samples are identical in every field,
// including the presence and value of the optional coordinates.
func (s NormalizedSample) Equal(other NormalizedSample) bool {
	if s.LapDistance != other.LapDistance ||
		s.LapTime != other.LapTime ||
		s.Sector != other.Sector ||
		s.Speed != other.Speed ||
		s.EngineRevs != other.EngineRevs ||
		s.Throttle != other.Throttle ||
		s.Brake != other.Brake ||
		s.Steer != other.Steer ||
		s.Gear != other.Gear {
		return false
	}

	return optionalFloatsEqual(s.X, other.X) &&
		optionalFloatsEqual(s.Y, other.Y) &&
		optionalFloatsEqual(s.Z, other.Z)
}

func optionalFloatsEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}

// SampleFromFields translates a source-defined field mapping into a
// RawSample. Sources disagree on field names (e.g. "lap_distance" vs
// "LapDistance [m]"); this adapter is the only place those variants are
// resolved. Missing or unparseable values coerce to typed defaults.
func SampleFromFields(fields map[string]interface{}) RawSample {
	sample := RawSample{
		Lap:         intField(fields, "lap", "Lap"),
		LapDistance: floatField(fields, "lap_distance", "LapDistance [m]"),
		LapTime:     floatField(fields, "lap_time", "LapTime [s]"),
		LastLapTime: floatField(fields, "last_lap_time", "LastLapTime [s]"),
		Speed:       floatField(fields, "speed", "Speed [km/h]"),
		EngineRPM:   floatField(fields, "engine_rpm", "rpm", "EngineRevs [rpm]"),
		Throttle:    floatField(fields, "throttle", "ThrottlePercentage [%]"),
		Brake:       floatField(fields, "brake", "BrakePercentage [%]"),
		Steering:    floatField(fields, "steering", "Steer [%]"),
		Gear:        intField(fields, "gear", "Gear [int]"),
		TrackLength: floatField(fields, "track_length", "TrackLen [m]"),

		PositionX: optionalFloatField(fields, "position_x", "X [m]"),
		PositionY: optionalFloatField(fields, "position_y", "Y [m]"),
		PositionZ: optionalFloatField(fields, "position_z", "Z [m]"),

		DriverName:   stringField(fields, "driver_name", "DriverName"),
		Position:     intField(fields, "position", "Position"),
		CarName:      stringField(fields, "car_name", "CarName"),
		CarModel:     stringField(fields, "car_model", "CarModel"),
		CarClass:     stringField(fields, "car_class", "CarClass"),
		TeamName:     stringField(fields, "team_name", "TeamName"),
		Manufacturer: stringField(fields, "manufacturer", "Manufacturer"),
	}

	if sector := optionalFloatField(fields, "sector", "sector_index", "current_sector", "Sector [int]"); sector != nil {
		index := int(*sector)
		sample.Sector = &index
	}

	if _, ok := fields["control"]; ok {
		sample.Control = DriverControl(intField(fields, "control"))
	} else {
		sample.Control = ControlNobody
	}

	for _, key := range []string{"sector1_time", "sector2_time", "sector3_time"} {
		if _, ok := fields[key]; !ok {
			break
		}

		sample.SectorSplits = append(sample.SectorSplits, floatField(fields, key))
	}

	sample.SectorBoundaries = floatSliceField(fields, "sector_boundaries")

	return sample
}

// floatSliceField coerces a list field element by element. JSON decoding
// hands us []interface{} rather than []float64, so both shapes are handled.
func floatSliceField(fields map[string]interface{}, key string) []float64 {
	switch values := fields[key].(type) {
	case []float64:
		out := make([]float64, len(values))
		copy(out, values)
		return out
	case []interface{}:
		out := make([]float64, 0, len(values))

		for _, value := range values {
			switch v := value.(type) {
			case float64:
				out = append(out, v)
			case int:
				out = append(out, float64(v))
			}
		}

		if len(out) == 0 {
			return nil
		}

		return out
	}

	return nil
}

func floatField(fields map[string]interface{}, keys ...string) float64 {
	if v := optionalFloatField(fields, keys...); v != nil {
		return *v
	}

	return 0
}

func optionalFloatField(fields map[string]interface{}, keys ...string) *float64 {
	for _, key := range keys {
		value, ok := fields[key]

		if !ok || value == nil {
			continue
		}

		switch v := value.(type) {
		case float64:
			out := v
			return &out
		case float32:
			out := float64(v)
			return &out
		case int:
			out := float64(v)
			return &out
		case int64:
			out := float64(v)
			return &out
		case string:
			parsed, err := strconv.ParseFloat(v, 64)

			if err != nil {
				continue
			}

			return &parsed
		}
	}

	return nil
}

func intField(fields map[string]interface{}, keys ...string) int {
	if v := optionalFloatField(fields, keys...); v != nil {
		return int(math.Round(*v))
	}

	return 0
}

func stringField(fields map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := fields[key].(string); ok && value != "" {
			return value
		}
	}

	return ""
}
