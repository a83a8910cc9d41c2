package eztel

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/davedean/eztel-writer/internal/telemetry"
)

// RecorderStats counts what the recorder has done since it was created.
type RecorderStats struct {
	LapsSaved         int `json:"laps_saved"`
	LapsDropped       int `json:"laps_dropped"`
	OpponentLapsSaved int `json:"opponent_laps_saved"`
}

// Recorder receives flushed laps from the polling engine and writes the
// complete ones to disk. Laps cut short by a stop condition are dropped;
// they carry partial data that downstream tools cannot use.
type Recorder struct {
	files      *FileManager
	formatter  *CSVFormatter
	normalizer telemetry.Normalizer

	mutex        sync.Mutex
	stats        RecorderStats
	sessionID    string
	sessionStart time.Time
}

func NewRecorder(files *FileManager) *Recorder {
	return &Recorder{
		files:     files,
		formatter: NewCSVFormatter(),
	}
}

func (r *Recorder) WriteLap(event telemetry.LapEvent) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if event.SessionID != r.sessionID {
		r.sessionID = event.SessionID
		r.sessionStart = time.Now()
	}

	if event.Opponent != nil {
		return r.writeOpponentLap(event)
	}

	if !event.Summary.Complete {
		r.stats.LapsDropped++
		logrus.Debugf("Dropping incomplete lap %d (%s)", event.Summary.Lap, event.Summary.StopReason)

		return nil
	}

	metadata := BuildMetadataBlock(event.Info, event.Summary, event.Samples, r.sessionStart)
	content := r.formatter.FormatLap(event.Samples, metadata)

	if content == "" {
		r.stats.LapsDropped++

		return nil
	}

	if _, err := r.files.SaveLap(content, event.Summary, event.Info, r.sessionStart); err != nil {
		return err
	}

	r.stats.LapsSaved++

	return nil
}

func (r *Recorder) writeOpponentLap(event telemetry.LapEvent) error {
	lap := event.Opponent
	samples := r.normalizeOpponentSamples(event)

	metadata := OpponentMetadataBlock(event.Info, lap, samples, r.sessionStart)
	content := r.formatter.FormatLap(samples, metadata)

	if content == "" {
		return nil
	}

	info := event.Info
	info.PlayerName = lap.DriverName
	info.CarName = lap.CarName
	info.CarModel = lap.CarModel
	info.CarClass = lap.CarClass

	summary := telemetry.LapSummary{
		Lap:     lap.LapNumber,
		LapTime: lap.LapTime,
	}

	if _, err := r.files.SaveLap(content, summary, info, r.sessionStart); err != nil {
		return err
	}

	r.stats.OpponentLapsSaved++

	return nil
}

// normalizeOpponentSamples runs the opponent's raw lap buffer through the
// normalizer, using the boundaries detected for that lap so sector indices
// in the export match the detected layout.
func (r *Recorder) normalizeOpponentSamples(event telemetry.LapEvent) []telemetry.NormalizedSample {
	samples := make([]telemetry.NormalizedSample, 0, len(event.Opponent.Samples))

	for _, raw := range event.Opponent.Samples {
		raw.SectorBoundaries = event.SectorBoundaries

		if raw.TrackLength <= 0 {
			raw.TrackLength = event.Info.TrackLength
		}

		samples = append(samples, r.normalizer.Normalize(raw))
	}

	return samples
}

func (r *Recorder) Stats() RecorderStats {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.stats
}
