package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/driver"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/formatter"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/projector"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/utils"
)

// QueryError is a client input error
type QueryError struct{ Msg string }

func (e *QueryError) Error() string { return e.Msg }

// controlMessage is sent by clients to steer their session
type controlMessage struct {
	Type    string   `json:"type"`
	Speed   *float64 `json:"speed,omitempty"`
	Time    string   `json:"time,omitempty"`
	Seeking *bool    `json:"seeking,omitempty"`
	Live    *bool    `json:"live,omitempty"`
	Source  string   `json:"source,omitempty"`
	BBox    string   `json:"bbox,omitempty"`
	Key     string   `json:"key,omitempty"`
	Format  string   `json:"format,omitempty"`
}

// statusMessage is every non-frame message sent to clients
type statusMessage struct {
	Type          string `json:"type"`
	Loading       *bool  `json:"loading,omitempty"`
	Error         string `json:"error,omitempty"`
	Session       string `json:"session,omitempty"`
	Source        string `json:"source,omitempty"`
	Live          *bool  `json:"live,omitempty"`
	AnimationTime string `json:"animationTime,omitempty"`
}

// optionsFromQuery builds the initial session options of a connection
func optionsFromQuery(q url.Values, defaultSource string, defaultSpeed float64) (driver.Options, formatter.Format, error) {
	opts := driver.Options{
		SourceID: strings.TrimSpace(q.Get("source")),
		Playing:  true,
		Speed:    defaultSpeed,
	}
	if opts.SourceID == "" {
		opts.SourceID = defaultSource
	}
	if opts.SourceID == "" {
		return opts, "", &QueryError{Msg: "You must provide a source."}
	}
	opts.Credentials.APIKey = q.Get("key")

	if v := q.Get("live"); v != "" {
		live, err := strconv.ParseBool(v)
		if err != nil {
			return opts, "", &QueryError{Msg: "live must be a boolean."}
		}
		opts.Live = live
	}
	if v := q.Get("paused"); v != "" {
		paused, err := strconv.ParseBool(v)
		if err != nil {
			return opts, "", &QueryError{Msg: "paused must be a boolean."}
		}
		opts.Playing = !paused
	}
	if v := q.Get("time"); v != "" {
		t, err := utils.ParseIso8601(v)
		if err != nil {
			return opts, "", &QueryError{Msg: "time must be ISO8601 or unix seconds."}
		}
		opts.AnimationTime = t
	}
	if v := q.Get("speed"); v != "" {
		speed, err := parseSpeed(v)
		if err != nil {
			return opts, "", err
		}
		opts.Speed = speed
	}
	vp, err := projector.ParseBBox(q.Get("bbox"))
	if err != nil {
		return opts, "", &QueryError{Msg: err.Error()}
	}
	opts.Viewport = vp

	format, err := formatter.ParseFormat(q.Get("format"))
	if err != nil {
		return opts, "", &QueryError{Msg: err.Error()}
	}
	return opts, format, nil
}

func parseSpeed(v string) (float64, error) {
	speed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || driver.ValidateSpeed(speed) != nil {
		return 0, &QueryError{Msg: "speed must be a non-negative number."}
	}
	return speed, nil
}

// applyControl returns opts updated by msg
func applyControl(opts driver.Options, msg controlMessage) (driver.Options, error) {
	switch msg.Type {
	case "play":
		opts.Playing = true
	case "pause":
		opts.Playing = false
	case "speed":
		if msg.Speed == nil || driver.ValidateSpeed(*msg.Speed) != nil {
			return opts, &QueryError{Msg: "speed must be a non-negative number."}
		}
		opts.Speed = *msg.Speed
	case "seeking":
		if msg.Seeking == nil {
			return opts, &QueryError{Msg: "seeking needs a boolean."}
		}
		opts.Seeking = *msg.Seeking
	case "seek":
		t, err := utils.ParseIso8601(msg.Time)
		if err != nil {
			return opts, &QueryError{Msg: "time must be ISO8601 or unix seconds."}
		}
		opts.AnimationTime = t
		opts.Seeking = false
	case "live":
		if msg.Live == nil {
			return opts, &QueryError{Msg: "live needs a boolean."}
		}
		if *msg.Live != opts.Live {
			opts.Live = *msg.Live
			// live starts from the wall clock; replay keeps the current start
			if opts.Live {
				opts.AnimationTime = time.Time{}
			}
		}
	case "viewport":
		vp, err := projector.ParseBBox(msg.BBox)
		if err != nil {
			return opts, &QueryError{Msg: err.Error()}
		}
		opts.Viewport = vp
	case "source":
		if strings.TrimSpace(msg.Source) == "" {
			return opts, &QueryError{Msg: "You must provide a source."}
		}
		opts.SourceID = strings.TrimSpace(msg.Source)
		if msg.Live != nil {
			opts.Live = *msg.Live
		}
	case "credentials":
		opts.Credentials.APIKey = msg.Key
	default:
		return opts, &QueryError{Msg: fmt.Sprintf("Unsupported message type: %q", msg.Type)}
	}
	return opts, nil
}
