package eztel

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davedean/eztel-writer/internal/telemetry"
)

func testLapEvent() telemetry.LapEvent {
	return telemetry.LapEvent{
		SessionID: "session-1",
		Info: telemetry.SessionInfo{
			PlayerName:  "P. Driver",
			TrackName:   "Sebring",
			CarModel:    "Porsche 963",
			TrackLength: 6019,
		},
		Summary: telemetry.LapSummary{
			Lap:      1,
			LapTime:  101.2,
			Complete: true,
		},
		Samples: []telemetry.NormalizedSample{
			{LapDistance: 100, LapTime: 2.0, Speed: 150},
			{LapDistance: 6000, LapTime: 101.2, Speed: 160},
		},
		SectorBoundaries: []float64{2000, 4000, 6019},
		NumSectors:       3,
	}
}

func TestRecorderSavesCompleteLap(t *testing.T) {
	dir := t.TempDir()
	fm, err := NewFileManager(dir)

	if err != nil {
		t.Fatal(err)
	}

	recorder := NewRecorder(fm)

	if err := recorder.WriteLap(testLapEvent()); err != nil {
		t.Fatal(err)
	}

	laps, err := fm.ListSavedLaps()

	if err != nil {
		t.Fatal(err)
	}

	if len(laps) != 1 {
		t.Logf("Expected 1 saved lap, was: %d", len(laps))
		t.FailNow()
	}

	content, err := os.ReadFile(filepath.Join(dir, laps[0]))

	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(content), "TrackName,Sebring") {
		t.Logf("Expected the metadata preamble in the saved file")
		t.Fail()
	}

	stats := recorder.Stats()

	if stats.LapsSaved != 1 || stats.LapsDropped != 0 {
		t.Logf("Expected stats to count the save, was: %+v", stats)
		t.Fail()
	}
}

func TestRecorderDropsIncompleteLap(t *testing.T) {
	fm, err := NewFileManager(t.TempDir())

	if err != nil {
		t.Fatal(err)
	}

	recorder := NewRecorder(fm)

	event := testLapEvent()
	event.Summary.Complete = false
	event.Summary.StopReason = telemetry.StopReasonIdleTimeout

	if err := recorder.WriteLap(event); err != nil {
		t.Fatal(err)
	}

	laps, err := fm.ListSavedLaps()

	if err != nil {
		t.Fatal(err)
	}

	if len(laps) != 0 {
		t.Logf("Expected no file for an incomplete lap, was: %v", laps)
		t.Fail()
	}

	stats := recorder.Stats()

	if stats.LapsDropped != 1 || stats.LapsSaved != 0 {
		t.Logf("Expected stats to count the drop, was: %+v", stats)
		t.Fail()
	}
}

func TestRecorderSavesOpponentLap(t *testing.T) {
	dir := t.TempDir()
	fm, err := NewFileManager(dir)

	if err != nil {
		t.Fatal(err)
	}

	recorder := NewRecorder(fm)

	event := testLapEvent()
	event.Summary = telemetry.LapSummary{}
	event.Samples = nil
	event.Opponent = &telemetry.OpponentLap{
		DriverName: "R. Opponent",
		LapNumber:  4,
		LapTime:    88.4,
		IsFastest:  true,
		CarModel:   "Ferrari 499P",
		CarClass:   "Hypercar",
		Samples: []telemetry.RawSample{
			{Lap: 4, LapDistance: 500, LapTime: 10, Speed: 180},
			{Lap: 4, LapDistance: 5500, LapTime: 85, Speed: 190},
		},
	}

	if err := recorder.WriteLap(event); err != nil {
		t.Fatal(err)
	}

	laps, err := fm.ListSavedLaps()

	if err != nil {
		t.Fatal(err)
	}

	if len(laps) != 1 {
		t.Logf("Expected 1 saved opponent lap, was: %d", len(laps))
		t.FailNow()
	}

	if !strings.Contains(laps[0], "r.-opponent") || !strings.Contains(laps[0], "lap4") {
		t.Logf("Expected the opponent's identity in the filename, was: %s", laps[0])
		t.Fail()
	}

	content, err := os.ReadFile(filepath.Join(dir, laps[0]))

	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(content), "Player,R. Opponent") {
		t.Logf("Expected the opponent as the player of their own export")
		t.Fail()
	}

	if !strings.Contains(string(content), "LapTime [s],88.400") {
		t.Logf("Expected the opponent's lap time in the metadata")
		t.Fail()
	}

	if recorder.Stats().OpponentLapsSaved != 1 {
		t.Logf("Expected stats to count the opponent lap, was: %+v", recorder.Stats())
		t.Fail()
	}
}
