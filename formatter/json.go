package formatter

import (
	"encoding/json"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/siri"
)

type responseBuilder struct{}

// NewResponseBuilder creates a new response builder for formatting SIRI responses
func NewResponseBuilder() *responseBuilder {
	return &responseBuilder{}
}

// BuildJSON serializes a SIRI response to JSON
func (rb *responseBuilder) BuildJSON(res *siri.Response) ([]byte, error) {
	return json.Marshal(res)
}
