package eztel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadConfigDefaultsWhenMissing(t *testing.T) {
	config, err := ReadConfig(filepath.Join(t.TempDir(), "config.yml"))

	if err != nil {
		t.Fatal(err)
	}

	defaults := DefaultConfig()

	if config.Telemetry.TargetProcess != defaults.Telemetry.TargetProcess {
		t.Logf("Expected default target process, was: %s", config.Telemetry.TargetProcess)
		t.Fail()
	}

	if config.OutputDir != defaults.OutputDir || config.HTTPPort != defaults.HTTPPort {
		t.Logf("Expected default output settings, was: %+v", config)
		t.Fail()
	}
}

func TestReadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	contents := `telemetry:
  target_process: "rFactor2"
  idle_timeout_seconds: 10
  track_opponents: false
output_dir: "./laps"
http_port: 9000
debug_logging: true
`

	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := ReadConfig(path)

	if err != nil {
		t.Fatal(err)
	}

	if config.Telemetry.TargetProcess != "rFactor2" {
		t.Logf("Expected the target process override, was: %s", config.Telemetry.TargetProcess)
		t.Fail()
	}

	if config.Telemetry.IdleTimeoutSeconds != 10 {
		t.Logf("Expected the idle timeout override, was: %f", config.Telemetry.IdleTimeoutSeconds)
		t.Fail()
	}

	if config.Telemetry.TrackOpponents {
		t.Logf("Expected opponent tracking to be disabled")
		t.Fail()
	}

	if config.OutputDir != "./laps" || config.HTTPPort != 9000 || !config.DebugLogging {
		t.Logf("Expected output overrides, was: %+v", config)
		t.Fail()
	}

	// Values absent from the file keep their defaults.
	if config.Telemetry.PollIntervalMS != DefaultConfig().Telemetry.PollIntervalMS {
		t.Logf("Expected the default poll interval, was: %d", config.Telemetry.PollIntervalMS)
		t.Fail()
	}
}
