// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"image"

	"github.com/user/longexposure/pkg/pipeline"
)

// FrameDecoder extracts single frames from a source video.
type FrameDecoder interface {
	// DecodeFrame returns the frame at index as a non-premultiplied RGBA image.
	// Every call is independent; no state is carried between indices.
	DecodeFrame(ctx context.Context, path string, index int) (*image.NRGBA, error)
}

// Prober reads stream metadata from a source video.
type Prober interface {
	// Probe reports the streams, dimensions and frame count of path.
	Probe(ctx context.Context, path string) (pipeline.VideoMetadata, error)
}
