package telemetry

import "sync"

// SharedMemorySource is the attachment point for a live game telemetry
// reader. Decoding the game's shared memory layout is platform specific and
// not implemented here; until a decoder is attached the source reports no
// telemetry, which keeps the poll loop idling rather than erroring.
type SharedMemorySource struct {
	logger Logger

	once sync.Once
}

func NewSharedMemorySource(logger Logger) *SharedMemorySource {
	return &SharedMemorySource{
		logger: logger,
	}
}

func (s *SharedMemorySource) Available() bool {
	s.once.Do(func() {
		s.logger.Warnf("No shared memory decoder is attached, live telemetry is unavailable")
	})

	return false
}

func (s *SharedMemorySource) Read() (RawSample, error) {
	return RawSample{}, ErrNoSample
}

func (s *SharedMemorySource) ReadOpponents() ([]RawSample, error) {
	return nil, nil
}

func (s *SharedMemorySource) SessionInfo() (SessionInfo, error) {
	return SessionInfo{}, nil
}
