package telemetry

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func opponentFrame(name string, lap int, lastLapTime float64) RawSample {
	return RawSample{
		DriverName:  name,
		Control:     ControlRemote,
		Lap:         lap,
		LastLapTime: lastLapTime,
		LapDistance: 50,
		Speed:       180,
	}
}

// driveOpponentLaps runs an opponent through consecutive laps with the given
// completed lap times and returns every emitted lap time in order.
func driveOpponentLaps(t *testing.T, ot *OpponentTracker, name string, lapTimes []float64) []float64 {
	t.Helper()

	now := time.Now()
	var emitted []float64

	ot.UpdateOpponent(opponentFrame(name, 1, 0), now)

	for i, lapTime := range lapTimes {
		now = now.Add(time.Duration(lapTime * float64(time.Second)))

		for _, lap := range ot.UpdateOpponent(opponentFrame(name, i+2, lapTime), now) {
			emitted = append(emitted, lap.LapTime)

			if !lap.IsFastest {
				t.Logf("Expected every emitted lap to be marked fastest")
				t.Fail()
			}
		}
	}

	return emitted
}

func TestOpponentTrackerFastestLapOnly(t *testing.T) {
	ot := NewOpponentTracker(false, logrus.New())

	emitted := driveOpponentLaps(t, ot, "A. Opponent", []float64{95.2, 101.0, 88.4, 140.0, 80.0})

	expected := []float64{95.2, 88.4, 80.0}

	if len(emitted) != len(expected) {
		t.Logf("Expected %d emitted laps, was: %d (%v)", len(expected), len(emitted), emitted)
		t.FailNow()
	}

	for i, lapTime := range emitted {
		if !compareFloatsTolerance(lapTime, expected[i]) {
			t.Logf("Expected emitted lap %d to be: %f, was: %f", i, expected[i], lapTime)
			t.Fail()
		}
	}
}

func TestOpponentTrackerOutLap(t *testing.T) {
	ot := NewOpponentTracker(false, logrus.New())
	now := time.Now()

	ot.UpdateOpponent(opponentFrame("B. Opponent", 1, 0), now)

	// Crossing the line without a valid last lap time is an out-lap: no
	// emission, tracking continues.
	laps := ot.UpdateOpponent(opponentFrame("B. Opponent", 2, 0), now.Add(time.Minute))

	if len(laps) != 0 {
		t.Logf("Expected no emission for an out-lap, was: %d", len(laps))
		t.Fail()
	}

	laps = ot.UpdateOpponent(opponentFrame("B. Opponent", 3, 92.5), now.Add(2*time.Minute))

	if len(laps) != 1 || !compareFloatsTolerance(laps[0].LapTime, 92.5) {
		t.Logf("Expected the following flying lap to emit, was: %v", laps)
		t.Fail()
	}
}

func TestOpponentTrackerLapNumberAndBuffer(t *testing.T) {
	ot := NewOpponentTracker(false, logrus.New())
	now := time.Now()

	for i := 0; i < 5; i++ {
		frame := opponentFrame("C. Opponent", 1, 0)
		frame.LapDistance = float64(i * 1000)

		ot.UpdateOpponent(frame, now.Add(time.Duration(i)*time.Second))
	}

	laps := ot.UpdateOpponent(opponentFrame("C. Opponent", 2, 90.0), now.Add(time.Minute))

	if len(laps) != 1 {
		t.Logf("Expected one emitted lap, was: %d", len(laps))
		t.FailNow()
	}

	if laps[0].LapNumber != 1 {
		t.Logf("Expected the emitted lap to be numbered 1, was: %d", laps[0].LapNumber)
		t.Fail()
	}

	if len(laps[0].Samples) != 5 {
		t.Logf("Expected the emitted lap to carry 5 samples, was: %d", len(laps[0].Samples))
		t.Fail()
	}

	if laps[0].DriverName != "C. Opponent" {
		t.Logf("Expected driver identity on the emitted lap, was: %s", laps[0].DriverName)
		t.Fail()
	}
}

func TestOpponentTrackerFiltering(t *testing.T) {
	filters := []struct {
		name    string
		frame   RawSample
		trackAI bool
		tracked bool
	}{
		{"remote player", opponentFrame("Remote", 1, 0), false, true},
		{"unnamed entry", RawSample{Control: ControlRemote, Lap: 1}, false, false},
		{"local player", RawSample{DriverName: "Me", Control: ControlPlayer, Lap: 1}, false, false},
		{"empty car", RawSample{DriverName: "Ghost", Control: ControlNobody, Lap: 1}, false, false},
		{"replay entry", RawSample{DriverName: "Replay", Control: ControlReplay, Lap: 1}, false, false},
		{"ai ignored by default", RawSample{DriverName: "Bot", Control: ControlAI, Lap: 1}, false, false},
		{"ai tracked when enabled", RawSample{DriverName: "Bot", Control: ControlAI, Lap: 1}, true, true},
	}

	for _, test := range filters {
		t.Run(test.name, func(t *testing.T) {
			ot := NewOpponentTracker(test.trackAI, logrus.New())

			ot.UpdateOpponent(test.frame, time.Now())

			if tracked := ot.OpponentCount() == 1; tracked != test.tracked {
				t.Logf("Expected tracked=%v, was: %v", test.tracked, tracked)
				t.Fail()
			}
		})
	}
}

func TestOpponentTrackerZeroLapNotBuffered(t *testing.T) {
	ot := NewOpponentTracker(false, logrus.New())
	now := time.Now()

	// Pit lane and grid frames arrive with lap 0 and must not pollute the
	// first lap's buffer.
	ot.UpdateOpponent(opponentFrame("D. Opponent", 0, 0), now)
	ot.UpdateOpponent(opponentFrame("D. Opponent", 0, 0), now.Add(time.Second))
	ot.UpdateOpponent(opponentFrame("D. Opponent", 1, 0), now.Add(2*time.Second))

	laps := ot.UpdateOpponent(opponentFrame("D. Opponent", 2, 95.0), now.Add(3*time.Second))

	if len(laps) != 1 {
		t.Logf("Expected one emitted lap, was: %d", len(laps))
		t.FailNow()
	}

	if len(laps[0].Samples) != 1 {
		t.Logf("Expected only the lap 1 frame in the buffer, was: %d", len(laps[0].Samples))
		t.Fail()
	}
}

func TestOpponentTrackerReset(t *testing.T) {
	ot := NewOpponentTracker(false, logrus.New())
	now := time.Now()

	ot.UpdateOpponent(opponentFrame("E. Opponent", 1, 0), now)
	ot.UpdateOpponent(opponentFrame("F. Opponent", 1, 0), now)

	if ot.OpponentCount() != 2 {
		t.Logf("Expected 2 tracked opponents, was: %d", ot.OpponentCount())
		t.Fail()
	}

	names := ot.OpponentNames()

	if len(names) != 2 || names[0] != "E. Opponent" || names[1] != "F. Opponent" {
		t.Logf("Expected sorted opponent names, was: %v", names)
		t.Fail()
	}

	ot.Reset()

	if ot.OpponentCount() != 0 {
		t.Logf("Expected no opponents after reset, was: %d", ot.OpponentCount())
		t.Fail()
	}

	// A returning driver starts a fresh fastest-lap baseline.
	ot.UpdateOpponent(opponentFrame("E. Opponent", 1, 0), now)
	laps := ot.UpdateOpponent(opponentFrame("E. Opponent", 2, 200.0), now.Add(time.Minute))

	if len(laps) != 1 {
		t.Logf("Expected a slow lap to emit against a fresh baseline, was: %d", len(laps))
		t.Fail()
	}
}
