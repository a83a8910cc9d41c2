// Package eztel turns completed telemetry laps into CSV files on disk.
// The polling engine lives in internal/telemetry; this package is the
// export surface layered on top of it.
package eztel

const (
	// telemetryFormat is written as the first metadata row of every
	// exported file so downstream analysis tools can identify the layout.
	telemetryFormat        = "LMUTelemetry v2"
	telemetryFormatVersion = "1"
)
