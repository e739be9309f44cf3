package render

import (
	"encoding/json"
	"io"

	"github.com/couchcryptid/event-map-index/internal/domain"
	"github.com/couchcryptid/event-map-index/internal/pipeline"
)

// Export is the JSON document written by the -json flag.
type Export struct {
	RegNum      string              `json:"reg_num"`
	Events      []domain.Resolution `json:"events"`
	RegionIndex domain.Index        `json:"region_index"`
	MapIndex    domain.Index        `json:"map_index"`
}

// JSON writes both indexes and the numbered resolutions. Output for the same
// result is byte-for-byte identical.
func JSON(w io.Writer, result *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(Export{
		RegNum:      result.RegNum,
		Events:      result.Resolutions,
		RegionIndex: result.RegionIndex,
		MapIndex:    result.MapIndex,
	})
}
