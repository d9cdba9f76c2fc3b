package formatter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/projector"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/siri"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/utils"
)

// Format names a frame serialization
type Format string

const (
	FormatJSON     Format = "json"
	FormatGeoJSON  Format = "geojson"
	FormatSiriJSON Format = "siri-json"
	FormatSiriXML  Format = "siri-xml"
)

// ErrUnknownFormat is returned by ParseFormat
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat accepts a format name case-insensitively; empty means FormatJSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatGeoJSON, FormatSiriJSON, FormatSiriXML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Encoder serializes frames in one format
type Encoder struct {
	Format    Format
	Codespace string
	ValidFor  time.Duration // SIRI ValidUntil offset
}

type frameMessage struct {
	Type          string            `json:"type"`
	AnimationTime string            `json:"animationTime"`
	Vehicles      []projector.State `json:"vehicles"`
}

// Encode serializes frame
func (e Encoder) Encode(frame projector.Frame) ([]byte, error) {
	switch e.Format {
	case FormatJSON, "":
		states := frame.States
		if states == nil {
			states = []projector.State{}
		}
		return json.Marshal(frameMessage{
			Type:          "frame",
			AnimationTime: utils.Iso8601Nano(frame.AnimationTime),
			Vehicles:      states,
		})
	case FormatGeoJSON:
		return BuildFeatureCollection(frame).MarshalJSON()
	case FormatSiriJSON:
		return NewResponseBuilder().BuildJSON(e.siri(frame))
	case FormatSiriXML:
		return NewResponseBuilder().BuildXML(e.siri(frame)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, e.Format)
	}
}

func (e Encoder) siri(frame projector.Frame) *siri.Response {
	vm := BuildVehicleMonitoring(frame, e.Codespace, e.ValidFor)
	return WrapVehicleMonitoringResponse(vm, frame.AnimationTime, e.Codespace)
}
