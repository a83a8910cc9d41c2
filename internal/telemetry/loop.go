package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// maxRecentLaps bounds the status surface's lap history.
const maxRecentLaps = 25

// LapEvent is one flushed lap, delivered exactly once to the LapWriter. When
// Opponent is non-nil the event describes an opponent's fastest lap rather
// than the local driver's.
type LapEvent struct {
	SessionID        string
	Info             SessionInfo
	Summary          LapSummary
	Samples          []NormalizedSample
	SectorBoundaries []float64
	NumSectors       int
	Opponent         *OpponentLap
}

// LapWriter is the export collaborator. It is invoked synchronously from the
// polling goroutine, once per flushed lap, in the order laps finish.
type LapWriter interface {
	WriteLap(event LapEvent) error
}

// Status is an immutable per-tick snapshot for observability. It never
// references live buffers.
type Status struct {
	State              SessionState `json:"state"`
	ProcessDetected    bool         `json:"process_detected"`
	TelemetryAvailable bool         `json:"telemetry_available"`
	Lap                int          `json:"lap"`
	SamplesBuffered    int          `json:"samples_buffered"`
	LapCompleted       bool         `json:"lap_completed"`
	Stopped            bool         `json:"session_stopped"`
	StopReason         string       `json:"stop_reason,omitempty"`
	Suspended          bool         `json:"suspended"`
	OpponentsTracked   int          `json:"opponents_tracked"`
	Error              string       `json:"error,omitempty"`
}

// TelemetryLoop drives one poll tick at a time: process detection, telemetry
// availability, session and opponent updates, and lap flushing. All state
// mutation happens on the polling goroutine; other goroutines only read
// status snapshots and set control flags.
type TelemetryLoop struct {
	config Config
	logger Logger

	session   *SessionManager
	opponents *OpponentTracker
	source    TelemetrySource
	process   ProcessWatcher
	writer    LapWriter

	// polling-goroutine only
	state     SessionState
	suspended bool

	mutex      sync.Mutex
	running    bool
	paused     bool
	lastStatus Status
	recentLaps []LapSummary
}

func NewTelemetryLoop(config Config, source TelemetrySource, process ProcessWatcher, writer LapWriter, logger Logger) *TelemetryLoop {
	return &TelemetryLoop{
		config:    config,
		logger:    logger,
		session:   NewSessionManager(config, logger),
		opponents: NewOpponentTracker(config.TrackAIOpponents, logger),
		source:    source,
		process:   process,
		writer:    writer,
		state:     StateIdle,
	}
}

func (tl *TelemetryLoop) Start() {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	tl.running = true
	tl.paused = false
}

func (tl *TelemetryLoop) Stop() {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	tl.running = false
}

func (tl *TelemetryLoop) Pause() {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	tl.paused = true
}

func (tl *TelemetryLoop) Resume() {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	tl.paused = false
}

func (tl *TelemetryLoop) IsRunning() bool {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	return tl.running
}

func (tl *TelemetryLoop) IsPaused() bool {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	return tl.paused
}

// Status returns the most recent tick's snapshot.
func (tl *TelemetryLoop) Status() Status {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	return tl.lastStatus
}

// RecentLaps returns summaries for the most recently flushed laps, newest
// last.
func (tl *TelemetryLoop) RecentLaps() []LapSummary {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	out := make([]LapSummary, len(tl.recentLaps))
	copy(out, tl.recentLaps)

	return out
}

// Run polls until the context is cancelled or Stop is called, delivering
// flushed laps to the writer from the polling goroutine.
func (tl *TelemetryLoop) Run(ctx context.Context) error {
	tl.Start()

	tl.logger.Infof("Telemetry loop started (poll interval: %s, target process: %s)", tl.config.PollInterval(), tl.config.TargetProcess)

	ticker := time.NewTicker(tl.config.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			tl.Stop()
			tl.logger.Infof("Telemetry loop stopped")

			return nil
		case now := <-ticker.C:
			if !tl.IsRunning() {
				return nil
			}

			_, events := tl.RunOnce(now)

			for _, event := range events {
				if tl.writer == nil {
					continue
				}

				if err := tl.writer.WriteLap(event); err != nil {
					tl.logger.WithError(err).Error("Could not write lap")
				}
			}
		}
	}
}

// RunOnce executes a single poll tick and returns the tick's status snapshot
// together with any laps flushed during it.
func (tl *TelemetryLoop) RunOnce(now time.Time) (Status, []LapEvent) {
	if !tl.IsRunning() {
		return Status{State: tl.state}, nil
	}

	metricTicks.Inc()

	var status Status

	processRunning := tl.process.IsRunning()
	status.ProcessDetected = processRunning

	if !processRunning {
		if tl.state != StateIdle {
			tl.logger.Infof("Target process gone, session over")

			tl.state = StateIdle
			tl.session.ClearLapBuffer()
		}

		tl.suspended = false

		return tl.finishTick(status, nil)
	}

	if tl.state == StateIdle {
		tl.state = StateDetected

		tl.logger.Infof("Target process detected: %s", tl.config.TargetProcess)
	}

	paused := tl.IsPaused()

	if paused {
		if tl.state == StateLogging {
			tl.state = StatePaused
		}
	} else if tl.state == StatePaused {
		tl.state = StateLogging
	}

	if tl.state == StateError {
		// Terminal until the process disappears and the cycle restarts from
		// idle.
		return tl.finishTick(status, nil)
	}

	if !tl.source.Available() {
		tl.suspended = false

		return tl.finishTick(status, nil)
	}

	status.TelemetryAvailable = true

	// The frame is consumed even while paused so opponent reads stay aligned
	// with the current tick.
	sample, err := tl.source.Read()
	haveSample := err == nil

	if err != nil && !errors.Is(err, ErrNoSample) {
		return tl.enterErrorState(status, err)
	}

	var events []LapEvent

	if haveSample && !paused {
		sessionEvents := tl.session.Update(sample, now)

		if sessionEvents.LapCompleted {
			status.LapCompleted = true

			if event, ok := tl.flushLap(StopReasonNone); ok {
				events = append(events, event)
			}
		}

		if reason := sessionEvents.StopReason; reason != StopReasonNone {
			if event, ok := tl.flushLap(reason); ok {
				events = append(events, event)
			}

			status.Stopped = true
			status.StopReason = reason.String()
			tl.suspended = true

			metricStops.WithLabelValues(reason.String()).Inc()

			if tl.state == StateLogging {
				tl.state = StateDetected
			}
		}
	}

	// Opponents progress regardless of a pause, the local player's suspension,
	// or a frame without a player sample.
	opponentEvents, err := tl.updateOpponents(now)

	if err != nil {
		return tl.enterErrorState(status, err)
	}

	events = append(events, opponentEvents...)

	if paused || !haveSample {
		return tl.finishTick(status, events)
	}

	if tl.suspended {
		if sample.Speed >= tl.config.MinSpeedKMH {
			tl.suspended = false

			tl.logger.Debugf("Forward activity resumed, logging continues")
		} else {
			return tl.finishTick(status, events)
		}
	}

	if tl.state == StateDetected {
		tl.state = StateLogging
		sessionID := tl.session.GenerateSessionID()

		tl.logger.Infof("Logging started, session id: %s", sessionID)
	}

	tl.session.AddSample(sample, now)

	return tl.finishTick(status, events)
}

func (tl *TelemetryLoop) enterErrorState(status Status, err error) (Status, []LapEvent) {
	tl.state = StateError
	status.Error = err.Error()

	tl.logger.WithError(err).Error("Telemetry read failed, loop requires restart")

	return tl.finishTick(status, nil)
}

// flushLap snapshots the buffer into a LapEvent and clears it. A stop reason
// marks the lap incomplete. Empty buffers flush nothing.
func (tl *TelemetryLoop) flushLap(reason StopReason) (LapEvent, bool) {
	samples := tl.session.LapData()

	if len(samples) == 0 {
		tl.session.ClearLapBuffer()

		return LapEvent{}, false
	}

	raws := tl.session.RawLapData()
	summary := tl.session.LapSummary()

	result := "complete"

	if reason != StopReasonNone {
		summary.Complete = false
		summary.StopReason = reason
		result = "incomplete"
	} else {
		summary.Complete = true
	}

	boundaries, numSectors := DetectSectorBoundaries(raws, tl.session.TrackLength())

	if summary.Complete {
		// Boundaries from a full lap are trustworthy; teach them to the
		// session so later samples resolve sectors against real splits.
		tl.session.SetSectorBoundaries(boundaries)
	}

	info := tl.sessionInfo()

	event := LapEvent{
		SessionID:        tl.session.SessionID(),
		Info:             info,
		Summary:          summary,
		Samples:          samples,
		SectorBoundaries: boundaries,
		NumSectors:       numSectors,
	}

	tl.session.ClearLapBuffer()

	metricLapsFlushed.WithLabelValues(result).Inc()

	tl.mutex.Lock()
	tl.recentLaps = append(tl.recentLaps, summary)

	if len(tl.recentLaps) > maxRecentLaps {
		tl.recentLaps = tl.recentLaps[len(tl.recentLaps)-maxRecentLaps:]
	}
	tl.mutex.Unlock()

	tl.logger.Infof("Flushed lap %d (%s): %.3fs, %d samples", summary.Lap, result, summary.LapTime, summary.SampleCount)

	return event, true
}

func (tl *TelemetryLoop) updateOpponents(now time.Time) ([]LapEvent, error) {
	if !tl.config.TrackOpponents {
		return nil, nil
	}

	opponentSamples, err := tl.source.ReadOpponents()

	if err != nil {
		return nil, errors.Wrap(err, "reading opponent telemetry")
	}

	var events []LapEvent

	for _, sample := range opponentSamples {
		for _, lap := range tl.opponents.UpdateOpponent(sample, now) {
			info := tl.sessionInfo()
			boundaries, numSectors := DetectSectorBoundaries(lap.Samples, info.TrackLength)

			events = append(events, LapEvent{
				SessionID:        tl.session.SessionID(),
				Info:             info,
				Opponent:         lap,
				SectorBoundaries: boundaries,
				NumSectors:       numSectors,
			})

			metricOpponentLaps.Inc()
		}
	}

	return events, nil
}

func (tl *TelemetryLoop) sessionInfo() SessionInfo {
	info, err := tl.source.SessionInfo()

	if err != nil {
		tl.logger.WithError(err).Warnf("Could not read session info, export metadata will be incomplete")
	}

	if info.TrackLength <= 0 {
		info.TrackLength = tl.session.TrackLength()
	}

	return info
}

func (tl *TelemetryLoop) finishTick(status Status, events []LapEvent) (Status, []LapEvent) {
	status.State = tl.state
	status.Suspended = tl.suspended
	status.Lap = tl.session.CurrentLap()
	status.SamplesBuffered = tl.session.BufferedSamples()
	status.OpponentsTracked = tl.opponents.OpponentCount()

	metricSamplesBuffered.Set(float64(status.SamplesBuffered))

	tl.mutex.Lock()
	tl.lastStatus = status
	tl.mutex.Unlock()

	return status, events
}
