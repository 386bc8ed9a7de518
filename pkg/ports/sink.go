package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving intermediate processing results for debugging purposes.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveMetadataJSON saves the probed source metadata as JSON.
	SaveMetadataJSON(data []byte) error

	// SaveComposedFrame saves the composite written for frame index.
	SaveComposedFrame(index int, img image.Image) error
}
