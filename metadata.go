package eztel

import (
	"strconv"
	"strings"
	"time"

	"github.com/davedean/eztel-writer/internal/telemetry"
)

// MetadataRow is one key,value line of the CSV preamble. Rows are ordered;
// analysis tools read the preamble positionally as well as by key.
type MetadataRow struct {
	Key   string
	Value string
}

// BuildMetadataBlock assembles the ordered preamble for an exported lap.
// Identity fields fall back to "Unknown ..." placeholders rather than being
// omitted, and the track length falls back to the furthest lap distance seen
// in the samples when the session does not report one.
func BuildMetadataBlock(info telemetry.SessionInfo, summary telemetry.LapSummary, samples []telemetry.NormalizedSample, sessionUTC time.Time) []MetadataRow {
	rows := []MetadataRow{
		{"Format", telemetryFormat},
		{"Version", telemetryFormatVersion},
		{"Player", fallback(info.PlayerName, "Unknown Driver")},
		{"TrackName", fallback(info.TrackName, "Unknown Track")},
	}

	rows = appendIfSet(rows, "CarModel", info.CarModel)
	rows = appendIfSet(rows, "CarClass", info.CarClass)
	rows = appendIfSet(rows, "Manufacturer", info.Manufacturer)
	rows = appendIfSet(rows, "TeamName", info.TeamName)

	rows = append(rows,
		MetadataRow{"CarName", fallback(info.CarName, "Unknown Car")},
		MetadataRow{"SessionUTC", sessionUTC.UTC().Format("2006-01-02T15:04:05Z")},
		MetadataRow{"LapTime [s]", formatMetadataNumber(summary.LapTime, 3)},
		MetadataRow{"TrackLen [m]", formatMetadataNumber(resolveTrackLength(info, samples), 2)},
	)

	rows = appendIfSet(rows, "GameVersion", info.GameVersion)
	rows = appendIfSet(rows, "Event", info.SessionType)

	return rows
}

// OpponentMetadataBlock builds the preamble for an opponent's fastest lap.
// Opponent identity comes from the opponent's own samples, not the local
// session info.
func OpponentMetadataBlock(info telemetry.SessionInfo, lap *telemetry.OpponentLap, samples []telemetry.NormalizedSample, sessionUTC time.Time) []MetadataRow {
	opponentInfo := info
	opponentInfo.PlayerName = lap.DriverName
	opponentInfo.CarName = lap.CarName
	opponentInfo.CarModel = lap.CarModel
	opponentInfo.CarClass = lap.CarClass
	opponentInfo.TeamName = lap.TeamName
	opponentInfo.Manufacturer = lap.Manufacturer

	summary := telemetry.LapSummary{
		Lap:     lap.LapNumber,
		LapTime: lap.LapTime,
	}

	return BuildMetadataBlock(opponentInfo, summary, samples, sessionUTC)
}

func resolveTrackLength(info telemetry.SessionInfo, samples []telemetry.NormalizedSample) float64 {
	if info.TrackLength > 0 {
		return info.TrackLength
	}

	var maxDistance float64

	for _, sample := range samples {
		if sample.LapDistance > maxDistance {
			maxDistance = sample.LapDistance
		}
	}

	return maxDistance
}

func appendIfSet(rows []MetadataRow, key, value string) []MetadataRow {
	if value == "" {
		return rows
	}

	return append(rows, MetadataRow{key, value})
}

func fallback(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}

	return value
}

// formatMetadataNumber trims trailing zeroes but keeps a minimum number of
// decimal places, so a 92.5 second lap prints as "92.500".
func formatMetadataNumber(value float64, minDecimals int) string {
	formatted := strconv.FormatFloat(value, 'f', 6, 64)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	decimals := 0

	if idx := strings.Index(formatted, "."); idx >= 0 {
		decimals = len(formatted) - idx - 1
	} else if minDecimals > 0 {
		formatted += "."
	}

	if decimals < minDecimals {
		formatted += strings.Repeat("0", minDecimals-decimals)
	}

	return formatted
}
