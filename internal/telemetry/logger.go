package telemetry

import "github.com/sirupsen/logrus"

// Logger is the logging interface used throughout the telemetry engine.
// *logrus.Logger satisfies it.
type Logger interface {
	logrus.FieldLogger
}
