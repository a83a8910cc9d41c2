package eztel

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/davedean/eztel-writer/internal/telemetry"
)

const (
	defaultOutputDir      = "./telemetry_output"
	defaultFilenameFormat = "{date}_{time}_{track}_{car}_{driver}_lap{lap}_t{lap_time}s.csv"
)

// FileManager writes exported laps into a flat output directory, one CSV per
// lap, with filenames that sort chronologically and carry enough identity to
// group laps by session, track, car and driver.
type FileManager struct {
	outputDir      string
	filenameFormat string
}

func NewFileManager(outputDir string) (*FileManager, error) {
	if outputDir == "" {
		outputDir = defaultOutputDir
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating telemetry output directory")
	}

	return &FileManager{
		outputDir:      outputDir,
		filenameFormat: defaultFilenameFormat,
	}, nil
}

func (fm *FileManager) OutputDirectory() string {
	return fm.outputDir
}

// SaveLap writes csvContent to a freshly generated filename and returns the
// full path of the written file.
func (fm *FileManager) SaveLap(csvContent string, summary telemetry.LapSummary, info telemetry.SessionInfo, sessionUTC time.Time) (string, error) {
	filename := fm.generateFilename(summary, info, sessionUTC)
	path := filepath.Join(fm.outputDir, filename)

	if err := os.WriteFile(path, []byte(csvContent), 0644); err != nil {
		return "", errors.Wrapf(err, "writing lap file %s", filename)
	}

	logrus.Infof("Saved lap %d to %s (%s)", summary.Lap, path, humanize.Bytes(uint64(len(csvContent))))

	return path, nil
}

// generateFilename fills the filename template. Field values use hyphens
// internally so underscores stay reserved as field separators, and the car
// field is prefixed with its class when one is known.
func (fm *FileManager) generateFilename(summary telemetry.LapSummary, info telemetry.SessionInfo, sessionUTC time.Time) string {
	car := firstNonEmpty(info.CarModel, info.CarName, "unknown-car")
	track := firstNonEmpty(info.TrackName, "unknown-track")
	driver := firstNonEmpty(info.PlayerName, "unknown-driver")

	car = sanitizeField(car)
	track = sanitizeField(track)
	driver = sanitizeField(driver)

	if carClass := sanitizeField(info.CarClass); carClass != "" {
		car = carClass + "_" + car
	}

	replacer := strings.NewReplacer(
		"{date}", sessionUTC.Format("2006-01-02"),
		"{time}", sessionUTC.Format("15-04"),
		"{track}", track,
		"{car}", car,
		"{driver}", driver,
		"{lap}", fmt.Sprintf("%d", summary.Lap),
		"{lap_time}", fmt.Sprintf("%d", int(math.Round(summary.LapTime))),
	)

	return sanitizeFilename(replacer.Replace(fm.filenameFormat))
}

// ListSavedLaps returns the names of every CSV in the output directory.
func (fm *FileManager) ListSavedLaps() ([]string, error) {
	return fm.matchLaps("*.csv")
}

// SessionLaps returns CSV filenames containing the filter substring. A date
// plus time prefix (e.g. "2026-08-31_14-02") groups the laps of one session.
func (fm *FileManager) SessionLaps(filter string) ([]string, error) {
	return fm.matchLaps("*" + filter + "*.csv")
}

func (fm *FileManager) matchLaps(pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(fm.outputDir, pattern))

	if err != nil {
		return nil, errors.Wrap(err, "listing lap files")
	}

	names := make([]string, 0, len(matches))

	for _, match := range matches {
		names = append(names, filepath.Base(match))
	}

	return names, nil
}

// DeleteLap removes a single lap file. It reports false when the file did
// not exist.
func (fm *FileManager) DeleteLap(filename string) (bool, error) {
	err := os.Remove(filepath.Join(fm.outputDir, filename))

	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, errors.Wrapf(err, "deleting lap file %s", filename)
	}

	return true, nil
}

// ClearAllLaps deletes every CSV in the output directory and returns how
// many were removed.
func (fm *FileManager) ClearAllLaps() (int, error) {
	names, err := fm.ListSavedLaps()

	if err != nil {
		return 0, err
	}

	deleted := 0

	for _, name := range names {
		if err := os.Remove(filepath.Join(fm.outputDir, name)); err != nil {
			return deleted, errors.Wrapf(err, "deleting lap file %s", name)
		}

		deleted++
	}

	return deleted, nil
}

var fieldSanitizer = strings.NewReplacer(
	"<", "-", ">", "-", ":", "-", `"`, "-", "/", "-", `\`, "-",
	"|", "-", "?", "-", "*", "-", "_", "-", " ", "-",
)

func sanitizeField(value string) string {
	sanitized := fieldSanitizer.Replace(strings.ToLower(value))

	for strings.Contains(sanitized, "--") {
		sanitized = strings.ReplaceAll(sanitized, "--", "-")
	}

	return strings.Trim(sanitized, "-")
}

var filenameSanitizer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_", `\`, "_",
	"|", "_", "?", "_", "*", "_",
)

func sanitizeFilename(filename string) string {
	return filenameSanitizer.Replace(filename)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
