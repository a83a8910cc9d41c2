package telemetry

import "time"

// Config holds the segmentation engine's tunables.
type Config struct {
	// TargetProcess is the game process watched for; no process means no
	// session.
	TargetProcess string `json:"target_process" yaml:"target_process"`

	// PollIntervalMS is the poll tick interval in milliseconds. ~10ms gives
	// the ~100Hz the shared memory updates at.
	PollIntervalMS int `json:"poll_interval_ms" yaml:"poll_interval_ms"`

	// IdleTimeoutSeconds stops lap buffering after this long without forward
	// progress. Zero or negative disables idle detection.
	IdleTimeoutSeconds float64 `json:"idle_timeout_seconds" yaml:"idle_timeout_seconds"`

	// MinSpeedKMH is the speed at or above which the car counts as active.
	MinSpeedKMH float64 `json:"min_speed_kmh" yaml:"min_speed_kmh"`

	// LapResetToleranceM is how far lap distance may jump backwards before it
	// is treated as a teleport.
	LapResetToleranceM float64 `json:"lap_reset_tolerance_m" yaml:"lap_reset_tolerance_m"`

	TrackOpponents   bool `json:"track_opponents" yaml:"track_opponents"`
	TrackAIOpponents bool `json:"track_opponent_ai" yaml:"track_opponent_ai"`
}

func DefaultConfig() Config {
	return Config{
		TargetProcess:      "Le Mans Ultimate",
		PollIntervalMS:     10,
		IdleTimeoutSeconds: 5.0,
		MinSpeedKMH:        1.0,
		LapResetToleranceM: 5.0,
		TrackOpponents:     true,
		TrackAIOpponents:   false,
	}
}

func (c Config) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return 10 * time.Millisecond
	}

	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
