package mocks

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/user/longexposure/pkg/pipeline"
	"github.com/user/longexposure/pkg/ports"
)

// FrameDecoder is a mock implementation of ports.FrameDecoder backed by a
// fixed list of frames.
type FrameDecoder struct {
	mu sync.Mutex

	Frames          []*image.NRGBA
	DecodeFrameFunc func(ctx context.Context, path string, index int) (*image.NRGBA, error)

	// Recorded calls for verification
	Calls []int
}

// NewFrameDecoder creates a decoder returning frames in order.
func NewFrameDecoder(frames ...*image.NRGBA) *FrameDecoder {
	return &FrameDecoder{Frames: frames}
}

func (m *FrameDecoder) DecodeFrame(ctx context.Context, path string, index int) (*image.NRGBA, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, index)
	m.mu.Unlock()

	if m.DecodeFrameFunc != nil {
		return m.DecodeFrameFunc(ctx, path, index)
	}
	if index < 0 || index >= len(m.Frames) {
		return nil, &pipeline.FrameError{Index: index, Op: "decode", Err: pipeline.ErrFrameUnavailable}
	}
	if m.Frames[index] == nil {
		return nil, &pipeline.FrameError{
			Index:       index,
			Op:          "decode",
			Diagnostics: fmt.Sprintf("mock: frame %d is corrupt", index),
			Err:         pipeline.ErrDecodeFailure,
		}
	}
	return m.Frames[index], nil
}

var _ ports.FrameDecoder = (*FrameDecoder)(nil)

// Prober is a mock implementation of ports.Prober.
type Prober struct {
	Metadata  pipeline.VideoMetadata
	Err       error
	ProbeFunc func(ctx context.Context, path string) (pipeline.VideoMetadata, error)

	Called bool
	Path   string
}

func (m *Prober) Probe(ctx context.Context, path string) (pipeline.VideoMetadata, error) {
	m.Called = true
	m.Path = path
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, path)
	}
	return m.Metadata, m.Err
}

var _ ports.Prober = (*Prober)(nil)

// SingleVideoMetadata returns metadata with one video stream of the given shape.
func SingleVideoMetadata(width, height, frames int) pipeline.VideoMetadata {
	return pipeline.VideoMetadata{
		Width:      width,
		Height:     height,
		FrameRate:  pipeline.Rational{Num: 30, Den: 1},
		FrameCount: frames,
		CodecName:  "h264",
		Streams: []pipeline.StreamInfo{
			{Index: 0, CodecType: "video", CodecName: "h264"},
		},
	}
}
