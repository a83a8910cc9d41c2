package telemetry

import (
	"math"
	"sort"
	"time"
)

// OpponentLap is a completed opponent lap selected for emission. Every
// emitted lap is the driver's fastest so far.
type OpponentLap struct {
	DriverName   string
	LapNumber    int
	LapTime      float64
	Samples      []RawSample
	IsFastest    bool
	Position     int
	CarName      string
	CarModel     string
	CarClass     string
	TeamName     string
	Manufacturer string
}

type opponentState struct {
	currentLap     int
	samples        []RawSample
	fastestLapTime float64
	lapStart       time.Time
}

// OpponentTracker follows every trackable remote driver in the session,
// buffering their laps independently and emitting only strictly improving
// completed laps.
type OpponentTracker struct {
	opponents map[string]*opponentState
	trackAI   bool
	logger    Logger
}

func NewOpponentTracker(trackAI bool, logger Logger) *OpponentTracker {
	return &OpponentTracker{
		opponents: make(map[string]*opponentState),
		trackAI:   trackAI,
		logger:    logger,
	}
}

// UpdateOpponent feeds one opponent frame into the tracker and returns any
// completed laps that pass the fastest-lap-only filter.
func (ot *OpponentTracker) UpdateOpponent(raw RawSample, now time.Time) []*OpponentLap {
	if raw.DriverName == "" || !ot.shouldTrack(raw.Control) {
		return nil
	}

	opponent, ok := ot.opponents[raw.DriverName]

	if !ok {
		opponent = &opponentState{
			fastestLapTime: math.Inf(1),
			lapStart:       now,
		}

		ot.opponents[raw.DriverName] = opponent

		ot.logger.Debugf("Tracking new opponent: %s (%s)", raw.DriverName, raw.Control)
	}

	var completed []*OpponentLap

	if raw.Lap > opponent.currentLap && opponent.currentLap > 0 {
		// The in-progress lap timer has already reset at the boundary; the
		// completed lap's duration comes from the last-lap-time field.
		lapTime := raw.LastLapTime

		if lapTime <= 0 {
			// Out-lap or otherwise invalid: reset and keep tracking.
			opponent.samples = nil
			opponent.lapStart = now
			opponent.currentLap = raw.Lap

			return nil
		}

		if lapTime < opponent.fastestLapTime {
			lap := &OpponentLap{
				DriverName:   raw.DriverName,
				LapNumber:    opponent.currentLap,
				LapTime:      lapTime,
				Samples:      copyRawSamples(opponent.samples),
				IsFastest:    true,
				Position:     raw.Position,
				CarName:      raw.CarName,
				CarModel:     raw.CarModel,
				CarClass:     raw.CarClass,
				TeamName:     raw.TeamName,
				Manufacturer: raw.Manufacturer,
			}

			opponent.fastestLapTime = lapTime
			completed = append(completed, lap)

			ot.logger.Infof("Opponent %s completed fastest lap %d: %.3fs", raw.DriverName, lap.LapNumber, lapTime)
		}

		opponent.samples = nil
		opponent.lapStart = now
	}

	opponent.currentLap = raw.Lap

	if raw.Lap > 0 {
		opponent.samples = append(opponent.samples, raw)
	}

	return completed
}

// shouldTrack filters by control type: the local player, empty cars and
// replay entries are never tracked; remote players always are; AI only when
// enabled.
func (ot *OpponentTracker) shouldTrack(control DriverControl) bool {
	switch control {
	case ControlRemote:
		return true
	case ControlAI:
		return ot.trackAI
	default:
		return false
	}
}

// OpponentCount reports the number of distinct drivers seen so far.
func (ot *OpponentTracker) OpponentCount() int {
	return len(ot.opponents)
}

// OpponentNames returns the tracked driver names in a stable order.
func (ot *OpponentTracker) OpponentNames() []string {
	names := make([]string, 0, len(ot.opponents))

	for name := range ot.opponents {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Reset clears all opponent state, e.g. when a new session begins.
func (ot *OpponentTracker) Reset() {
	ot.opponents = make(map[string]*opponentState)
}

func copyRawSamples(samples []RawSample) []RawSample {
	out := make([]RawSample, len(samples))
	copy(out, samples)

	return out
}
