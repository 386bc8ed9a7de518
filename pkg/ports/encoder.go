package ports

import (
	"context"
	"image"
	"time"
)

// VideoEncoder abstracts the long-lived encoding collaborator.
// Frames are accepted in call order and written synchronously.
type VideoEncoder interface {
	// Begin starts the encoder for the given output.
	Begin(ctx context.Context, opts EncoderOptions) error

	// EncodeFrame serializes img and blocks until the encoder has accepted it.
	EncodeFrame(img image.Image) error

	// End signals end of input and waits for the output to be finalized.
	// A zero timeout waits until the encoder exits on its own.
	End(timeout time.Duration) error
}

// EncoderOptions configures the output video.
type EncoderOptions struct {
	OutputPath  string
	FPS         float64
	Codec       string // ffmpeg encoder name, e.g. libx264
	PixelFormat string // output pixel format, empty keeps the encoder default
}
