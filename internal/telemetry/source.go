package telemetry

import "github.com/pkg/errors"

// ErrNoSample is returned by a source when no frame is available this tick.
// It is not a read failure; the orchestrator simply skips the tick.
var ErrNoSample = errors.New("telemetry: no sample available")

// TelemetrySource is the acquisition collaborator. Implementations read from
// whatever the game exposes (shared memory, UDP, a replay file) and hand back
// flat frames. Read and ReadOpponents may fail, which moves the orchestrator
// to its error state.
type TelemetrySource interface {
	// Available reports whether the source currently has telemetry to offer.
	Available() bool

	// Read returns the local driver's frame for this tick.
	Read() (RawSample, error)

	// ReadOpponents returns zero or more frames for the other vehicles
	// currently visible in the session.
	ReadOpponents() ([]RawSample, error)

	// SessionInfo returns session-level metadata for export.
	SessionInfo() (SessionInfo, error)
}

// ProcessWatcher reports whether the target game process is running.
type ProcessWatcher interface {
	IsRunning() bool
}

// SessionInfo is session-level metadata pulled from the source at flush time.
type SessionInfo struct {
	PlayerName   string
	TrackName    string
	CarName      string
	CarModel     string
	CarClass     string
	TeamName     string
	Manufacturer string
	SessionType  string
	GameVersion  string
	TrackLength  float64
}
