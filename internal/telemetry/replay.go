package telemetry

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// replayFrame is one poll tick's worth of captured telemetry. Field names
// inside the maps follow whichever source produced the capture; the
// SampleFromFields adapter resolves them.
type replayFrame struct {
	Session   map[string]interface{}   `json:"session,omitempty"`
	Player    map[string]interface{}   `json:"player,omitempty"`
	Opponents []map[string]interface{} `json:"opponents,omitempty"`
}

// ReplaySource plays back a JSON-lines telemetry capture, one frame per tick.
// A frame carrying only a "session" object sets the session metadata without
// consuming a tick.
type ReplaySource struct {
	frames  []replayFrame
	index   int
	current replayFrame
	info    SessionInfo
}

func NewReplaySourceFromFile(path string) (*ReplaySource, error) {
	f, err := os.Open(path)

	if err != nil {
		return nil, errors.Wrap(err, "opening telemetry capture")
	}

	defer f.Close()

	return NewReplaySource(f)
}

func NewReplaySource(r io.Reader) (*ReplaySource, error) {
	source := &ReplaySource{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var frame replayFrame

		if err := json.Unmarshal(line, &frame); err != nil {
			return nil, errors.Wrap(err, "parsing telemetry capture")
		}

		if frame.Session != nil {
			source.info = sessionInfoFromFields(frame.Session)

			if frame.Player == nil && len(frame.Opponents) == 0 {
				continue
			}
		}

		source.frames = append(source.frames, frame)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading telemetry capture")
	}

	return source, nil
}

func (rs *ReplaySource) Available() bool {
	return rs.index < len(rs.frames)
}

func (rs *ReplaySource) Read() (RawSample, error) {
	if rs.index >= len(rs.frames) {
		return RawSample{}, ErrNoSample
	}

	rs.current = rs.frames[rs.index]
	rs.index++

	if rs.current.Player == nil {
		return RawSample{}, ErrNoSample
	}

	return SampleFromFields(rs.current.Player), nil
}

// ReadOpponents returns the opponent frames captured alongside the most
// recently read player frame.
func (rs *ReplaySource) ReadOpponents() ([]RawSample, error) {
	samples := make([]RawSample, 0, len(rs.current.Opponents))

	for _, fields := range rs.current.Opponents {
		samples = append(samples, SampleFromFields(fields))
	}

	return samples, nil
}

func (rs *ReplaySource) SessionInfo() (SessionInfo, error) {
	return rs.info, nil
}

func sessionInfoFromFields(fields map[string]interface{}) SessionInfo {
	return SessionInfo{
		PlayerName:   stringField(fields, "player_name", "Player"),
		TrackName:    stringField(fields, "track_name", "TrackName"),
		CarName:      stringField(fields, "car_name", "CarName"),
		CarModel:     stringField(fields, "car_model", "CarModel"),
		CarClass:     stringField(fields, "car_class", "CarClass"),
		TeamName:     stringField(fields, "team_name", "TeamName"),
		Manufacturer: stringField(fields, "manufacturer", "Manufacturer"),
		SessionType:  stringField(fields, "session_type", "Event"),
		GameVersion:  stringField(fields, "game_version", "GameVersion"),
		TrackLength:  floatField(fields, "track_length", "TrackLen [m]"),
	}
}
