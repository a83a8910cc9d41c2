package eztel

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/davedean/eztel-writer/internal/telemetry"
)

// telemetryHeader is the canonical column order for exported laps. The
// bracketed units are part of the column names and are relied upon by
// downstream tooling.
var telemetryHeader = []string{
	"LapDistance [m]",
	"LapTime [s]",
	"Sector [int]",
	"Speed [km/h]",
	"EngineRevs [rpm]",
	"ThrottlePercentage [%]",
	"BrakePercentage [%]",
	"Steer [%]",
	"Gear [int]",
	"X [m]",
	"Y [m]",
	"Z [m]",
}

// CSVFormatter renders normalized lap samples into the export CSV layout:
// an ordered metadata preamble, a blank line, the header row, then one row
// per sample sorted by lap distance.
type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) FormatLap(samples []telemetry.NormalizedSample, metadata []MetadataRow) string {
	if len(samples) == 0 {
		return ""
	}

	var out strings.Builder

	for _, row := range metadata {
		out.WriteString(row.Key)
		out.WriteString(",")
		out.WriteString(row.Value)
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(strings.Join(telemetryHeader, ","))
	out.WriteString("\n")

	sorted := make([]telemetry.NormalizedSample, len(samples))
	copy(sorted, samples)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LapDistance < sorted[j].LapDistance
	})

	for _, sample := range sorted {
		out.WriteString(f.formatRow(sample))
		out.WriteString("\n")
	}

	return out.String()
}

func (f *CSVFormatter) formatRow(sample telemetry.NormalizedSample) string {
	values := []string{
		formatDecimal(sample.LapDistance, 3),
		formatDecimal(sample.LapTime, 3),
		strconv.Itoa(sample.Sector),
		formatDecimal(sample.Speed, 2),
		formatDecimal(sample.EngineRevs, 2),
		formatDecimal(sample.Throttle, 2),
		formatDecimal(sample.Brake, 2),
		formatDecimal(sample.Steer, 2),
		strconv.Itoa(sample.Gear),
		formatOptionalDecimal(sample.X, 2),
		formatOptionalDecimal(sample.Y, 2),
		formatOptionalDecimal(sample.Z, 2),
	}

	return strings.Join(values, ",")
}

func formatOptionalDecimal(value *float64, decimals int) string {
	if value == nil {
		return ""
	}

	return formatDecimal(*value, decimals)
}

// formatDecimal rounds half away from zero at the requested number of
// decimal places. Rounding operates on the shortest decimal representation
// of the value, so 1.005 prints as "1.01" even though the nearest float64
// sits fractionally below the half.
func formatDecimal(value float64, decimals int) string {
	negative := math.Signbit(value)

	digits := strconv.FormatFloat(math.Abs(value), 'f', -1, 64)

	intPart := digits
	fracPart := ""

	if i := strings.IndexByte(digits, '.'); i >= 0 {
		intPart, fracPart = digits[:i], digits[i+1:]
	}

	if len(fracPart) < decimals {
		fracPart += strings.Repeat("0", decimals-len(fracPart))
	} else if len(fracPart) > decimals {
		roundUp := fracPart[decimals] >= '5'
		fracPart = fracPart[:decimals]

		if roundUp {
			intPart, fracPart = incrementDecimal(intPart, fracPart)
		}
	}

	out := intPart

	if decimals > 0 {
		out += "." + fracPart
	}

	if negative && strings.Trim(out, "0.") != "" {
		out = "-" + out
	}

	return out
}

func incrementDecimal(intPart, fracPart string) (string, string) {
	digits := []byte(intPart + fracPart)

	i := len(digits) - 1

	for ; i >= 0; i-- {
		if digits[i] < '9' {
			digits[i]++
			break
		}

		digits[i] = '0'
	}

	if i < 0 {
		digits = append([]byte{'1'}, digits...)
	}

	split := len(digits) - len(fracPart)

	return string(digits[:split]), string(digits[split:])
}
