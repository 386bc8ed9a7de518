// Package ffmpegdecoder extracts single frames from a video with an ffmpeg
// subprocess per frame.
package ffmpegdecoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strconv"

	"github.com/user/longexposure/pkg/adapters/ffmpegbin"
	"github.com/user/longexposure/pkg/compositor"
	"github.com/user/longexposure/pkg/pipeline"
	"github.com/user/longexposure/pkg/ports"
)

// Decoder implements ports.FrameDecoder.
type Decoder struct {
	logger ports.Logger
}

// New creates a new frame decoder.
func New(logger ports.Logger) *Decoder {
	return &Decoder{logger: logger.WithComponent("decoder")}
}

// Args returns the ffmpeg arguments that emit frame index of path as a
// single RGBA PNG on stdout.
func Args(path string, index int) []string {
	return []string{
		"-nostdin",
		"-v", "error",
		"-i", path,
		"-vf", `select=gte(n\,` + strconv.Itoa(index) + `)`,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "png",
		"-pix_fmt", "rgba",
		"pipe:1",
	}
}

// DecodeFrame decodes frame index of path.
func (d *Decoder) DecodeFrame(ctx context.Context, path string, index int) (*image.NRGBA, error) {
	if index < 0 {
		return nil, &pipeline.FrameError{Index: index, Op: "decode", Err: fmt.Errorf("%w: negative index", pipeline.ErrDecodeFailure)}
	}

	ffmpegPath, err := ffmpegbin.FindFFmpeg()
	if err != nil {
		return nil, &pipeline.FrameError{Index: index, Op: "decode", Err: fmt.Errorf("%w: %w", pipeline.ErrDecodeFailure, err)}
	}

	d.logger.Debug("Decoding frame %d", index)

	var stdout, stderr bytes.Buffer
	cmd := ffmpegbin.CommandContext(ctx, ffmpegPath, Args(path, index)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &pipeline.FrameError{
			Index:       index,
			Op:          "decode",
			Diagnostics: stderr.String(),
			Err:         fmt.Errorf("%w: ffmpeg: %w", pipeline.ErrDecodeFailure, err),
		}
	}

	if stdout.Len() == 0 {
		return nil, &pipeline.FrameError{
			Index:       index,
			Op:          "decode",
			Diagnostics: stderr.String(),
			Err:         pipeline.ErrFrameUnavailable,
		}
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, &pipeline.FrameError{
			Index:       index,
			Op:          "decode",
			Diagnostics: stderr.String(),
			Err:         fmt.Errorf("%w: png: %w", pipeline.ErrDecodeFailure, err),
		}
	}

	return compositor.Normalize(img), nil
}

// Ensure Decoder implements ports.FrameDecoder
var _ ports.FrameDecoder = (*Decoder)(nil)
