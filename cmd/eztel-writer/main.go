package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	eztel "github.com/davedean/eztel-writer"
	"github.com/davedean/eztel-writer/internal/procwatch"
	"github.com/davedean/eztel-writer/internal/telemetry"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "c", "./config.yml", "config path")
	flag.Parse()
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	logger.Infof("Starting eztel-writer telemetry lap recorder")

	config, err := eztel.ReadConfig(configPath)

	if err != nil {
		logger.WithError(err).Fatalf("Could not read config at %s", configPath)
	}

	if config.DebugLogging {
		logger.SetLevel(logrus.DebugLevel)
	}

	source, process, err := buildSource(config, logger)

	if err != nil {
		logger.WithError(err).Fatal("Could not initialise telemetry source")
	}

	files, err := eztel.NewFileManager(config.OutputDir)

	if err != nil {
		logger.WithError(err).Fatal("Could not initialise output directory")
	}

	recorder := eztel.NewRecorder(files)
	loop := telemetry.NewTelemetryLoop(config.Telemetry, source, process, recorder, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		logger.Infof("Shutting down")
		cancel()
	}()

	var group errgroup.Group

	group.Go(func() error {
		return loop.Run(ctx)
	})

	if config.HTTPPort > 0 {
		web := telemetry.NewHTTP(config.HTTPPort, loop, logger)

		group.Go(web.Listen)

		go func() {
			<-ctx.Done()

			if err := web.Close(); err != nil {
				logger.WithError(err).Error("Could not close status server")
			}
		}()
	}

	if err := group.Wait(); err != nil {
		logger.WithError(err).Fatal("eztel-writer stopped with error")
	}

	stats := recorder.Stats()
	logger.Infof("Stopped. Saved %d laps (%d opponent laps, %d dropped)", stats.LapsSaved, stats.OpponentLapsSaved, stats.LapsDropped)
}

// buildSource wires the configured telemetry source. Replay mode plays a
// JSON-lines capture and treats the target process as always present; live
// mode watches the process table for the configured game executable.
func buildSource(config eztel.Config, logger *logrus.Logger) (telemetry.TelemetrySource, telemetry.ProcessWatcher, error) {
	if config.ReplayFile != "" {
		source, err := telemetry.NewReplaySourceFromFile(config.ReplayFile)

		if err != nil {
			return nil, nil, err
		}

		logger.Infof("Replaying telemetry capture from %s", config.ReplayFile)

		return source, replayProcess{}, nil
	}

	watcher := procwatch.NewWatcher(config.Telemetry.TargetProcess, logger)

	return telemetry.NewSharedMemorySource(logger), watcher, nil
}

// replayProcess satisfies the process watcher during capture playback,
// where there is no game process to detect.
type replayProcess struct{}

func (replayProcess) IsRunning() bool { return true }
