package eztel

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/davedean/eztel-writer/internal/telemetry"
)

// Config is the full application configuration: the polling engine's
// tunables plus where to write laps and where to serve the status API.
type Config struct {
	Telemetry telemetry.Config `json:"telemetry" yaml:"telemetry"`

	OutputDir    string `json:"output_dir" yaml:"output_dir"`
	ReplayFile   string `json:"replay_file" yaml:"replay_file"`
	HTTPPort     uint16 `json:"http_port" yaml:"http_port"`
	DebugLogging bool   `json:"debug_logging" yaml:"debug_logging"`
}

func DefaultConfig() Config {
	return Config{
		Telemetry: telemetry.DefaultConfig(),
		OutputDir: defaultOutputDir,
		HTTPPort:  8772,
	}
}

// ReadConfig loads a YAML config file, filling omitted values with
// defaults. A missing file is not an error; the defaults are returned.
func ReadConfig(path string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)

	if os.IsNotExist(err) {
		return config, nil
	}

	if err != nil {
		return config, errors.Wrap(err, "opening config file")
	}

	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&config); err != nil {
		return config, errors.Wrap(err, "parsing config file")
	}

	return config, nil
}
