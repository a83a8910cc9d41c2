package telemetry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SessionState is the orchestrator-owned logging state.
type SessionState int

const (
	StateIdle SessionState = iota
	StateDetected
	StateLogging
	StatePaused
	StateError
)

func (s SessionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetected:
		return "detected"
	case StateLogging:
		return "logging"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// StopReason identifies why lap buffering ended early. A stop is a first-class
// event, not an error.
type StopReason int

const (
	StopReasonNone StopReason = iota
	StopReasonLapDistanceReset
	StopReasonIdleTimeout
)

func (r StopReason) String() string {
	switch r {
	case StopReasonLapDistanceReset:
		return "lap_distance_reset"
	case StopReasonIdleTimeout:
		return "idle_timeout"
	default:
		return ""
	}
}

// Events is the per-tick outcome of a SessionManager update.
type Events struct {
	LapCompleted bool
	StopReason   StopReason
}

// LapSummary describes one flushed lap. It is built purely from the buffered
// samples and is immutable once produced.
type LapSummary struct {
	Lap         int        `json:"lap"`
	LapTime     float64    `json:"lap_time"`
	SampleCount int        `json:"samples_count"`
	LapDistance float64    `json:"lap_distance"`
	Complete    bool       `json:"lap_completed"`
	StopReason  StopReason `json:"-"`
}

// lapTimeSlack is how far the wall-clock-derived lap time must exceed the
// source-reported one before the derived value wins. The source under-reports
// lap time at lap-boundary instants. Empirical constant.
const lapTimeSlack = 0.02

// progressEpsilon is the minimum forward distance increase that counts as
// progress for idle detection.
const progressEpsilon = 0.1

// SessionManager owns the local driver's lap buffer. It detects lap changes
// and stop conditions, reconstructs a monotonic lap time and suppresses
// duplicate frames.
type SessionManager struct {
	normalizer Normalizer
	logger     Logger

	idleTimeout       time.Duration
	minSpeedKMH       float64
	lapResetTolerance float64

	currentLap int
	sessionID  string

	buffer    []NormalizedSample
	rawBuffer []RawSample

	lastLapDistance  float64
	haveLapDistance  bool
	lastProgress     time.Time
	lapStart         time.Time
	trackLength      float64
	lastAssignedTime float64
	bufferLap        int
	sectorBoundaries []float64
}

func NewSessionManager(config Config, logger Logger) *SessionManager {
	return &SessionManager{
		logger:            logger,
		idleTimeout:       secondsToDuration(config.IdleTimeoutSeconds),
		minSpeedKMH:       nonNegative(config.MinSpeedKMH),
		lapResetTolerance: nonNegative(config.LapResetToleranceM),
	}
}

// Update compares the incoming frame against session state and reports lap
// completion and stop conditions. It does not buffer the sample.
func (sm *SessionManager) Update(raw RawSample, now time.Time) Events {
	var events Events

	if raw.Lap > sm.currentLap && sm.currentLap > 0 {
		events.LapCompleted = true

		sm.logger.Debugf("Lap change detected: %d -> %d", sm.currentLap, raw.Lap)
	}

	if raw.Lap != sm.currentLap {
		sm.currentLap = raw.Lap
		sm.lapStart = now
	}

	sm.observeTrackLength(raw)

	events.StopReason = sm.detectStopConditions(raw, now)

	return events
}

// AddSample normalizes a frame, assigns its reconstructed lap time, and
// appends it to the lap buffer. A frame whose normalized form is identical to
// the buffer's last entry is suppressed.
func (sm *SessionManager) AddSample(raw RawSample, now time.Time) {
	if len(raw.SectorBoundaries) == 0 && len(sm.sectorBoundaries) > 0 {
		raw.SectorBoundaries = sm.sectorBoundaries
	}

	if raw.TrackLength < sm.trackLength {
		raw.TrackLength = sm.trackLength
	}

	if sm.lapStart.IsZero() {
		sm.lapStart = now
	}

	normalized := sm.normalizer.Normalize(raw)
	normalized.LapTime = sm.reconstructLapTime(normalized.LapTime, now)

	if len(sm.buffer) > 0 && normalized.Equal(sm.buffer[len(sm.buffer)-1]) {
		return
	}

	if len(sm.buffer) == 0 {
		sm.bufferLap = raw.Lap
	}

	sm.buffer = append(sm.buffer, normalized)
	sm.rawBuffer = append(sm.rawBuffer, raw)
}

// reconstructLapTime prefers the wall-clock duration since lap start when the
// source-reported value lags behind it, and never lets the assigned lap time
// decrease within a lap.
func (sm *SessionManager) reconstructLapTime(reported float64, now time.Time) float64 {
	derived := now.Sub(sm.lapStart).Seconds()

	assigned := reported

	if derived > reported+lapTimeSlack {
		assigned = derived
	} else if derived > assigned {
		assigned = derived
	}

	if assigned < sm.lastAssignedTime {
		assigned = sm.lastAssignedTime
	}

	sm.lastAssignedTime = assigned

	return assigned
}

func (sm *SessionManager) detectStopConditions(raw RawSample, now time.Time) StopReason {
	reason := StopReasonNone

	if sm.lastProgress.IsZero() {
		sm.lastProgress = now
	}

	if sm.haveLapDistance && raw.LapDistance+sm.lapResetTolerance < sm.lastLapDistance {
		reason = StopReasonLapDistanceReset
	}

	if !sm.haveLapDistance || raw.LapDistance > sm.lastLapDistance+progressEpsilon {
		sm.lastProgress = now
	}

	sm.lastLapDistance = raw.LapDistance
	sm.haveLapDistance = true

	if raw.Speed >= sm.minSpeedKMH {
		sm.lastProgress = now
	}

	if reason == StopReasonNone && sm.idleTimeout > 0 && now.Sub(sm.lastProgress) >= sm.idleTimeout {
		reason = StopReasonIdleTimeout
	}

	if reason != StopReasonNone {
		sm.logger.Debugf("Stop condition detected: %s (lap: %d, lap distance: %.1fm)", reason, sm.currentLap, raw.LapDistance)

		// Reset the progress timer so the stop does not immediately re-fire.
		sm.lastProgress = now
	}

	return reason
}

// observeTrackLength keeps a running maximum of the track length, taken from
// an explicit track-length field or the largest lap distance seen. It never
// decreases within a session.
func (sm *SessionManager) observeTrackLength(raw RawSample) {
	if raw.TrackLength > sm.trackLength {
		sm.trackLength = raw.TrackLength
	}

	if raw.LapDistance > sm.trackLength {
		sm.trackLength = raw.LapDistance
	}
}

// LapData returns a copy of the buffered normalized samples.
func (sm *SessionManager) LapData() []NormalizedSample {
	out := make([]NormalizedSample, len(sm.buffer))
	copy(out, sm.buffer)

	return out
}

// RawLapData returns a copy of the raw frames backing the buffer, used for
// sector boundary detection at flush time.
func (sm *SessionManager) RawLapData() []RawSample {
	out := make([]RawSample, len(sm.rawBuffer))
	copy(out, sm.rawBuffer)

	return out
}

// LapSummary derives a summary from the buffer contents. An empty buffer
// yields an empty summary.
func (sm *SessionManager) LapSummary() LapSummary {
	if len(sm.buffer) == 0 {
		return LapSummary{}
	}

	last := sm.buffer[len(sm.buffer)-1]

	return LapSummary{
		Lap:         sm.bufferLap,
		LapTime:     last.LapTime,
		SampleCount: len(sm.buffer),
		LapDistance: last.LapDistance,
	}
}

// ClearLapBuffer empties the buffer and resets the assigned lap time.
func (sm *SessionManager) ClearLapBuffer() {
	sm.buffer = nil
	sm.rawBuffer = nil
	sm.lastAssignedTime = 0
}

// GenerateSessionID assigns and returns a fresh session identifier.
func (sm *SessionManager) GenerateSessionID() string {
	sm.sessionID = uuid.New().String()

	return sm.sessionID
}

func (sm *SessionManager) SessionID() string {
	return sm.sessionID
}

func (sm *SessionManager) CurrentLap() int {
	return sm.currentLap
}

func (sm *SessionManager) BufferedSamples() int {
	return len(sm.buffer)
}

func (sm *SessionManager) TrackLength() float64 {
	return sm.trackLength
}

// SetSectorBoundaries records boundaries learned from a completed lap so that
// later samples resolve their sector index against real split points.
func (sm *SessionManager) SetSectorBoundaries(boundaries []float64) {
	sm.sectorBoundaries = boundaries
}

func (sm *SessionManager) SectorBoundaries() []float64 {
	return sm.sectorBoundaries
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

func nonNegative(value float64) float64 {
	if value < 0 {
		return 0
	}

	return value
}
