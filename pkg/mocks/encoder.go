package mocks

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/user/longexposure/pkg/compositor"
	"github.com/user/longexposure/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder.
// Every accepted frame is copied so tests can inspect the exact sequence.
type VideoEncoder struct {
	mu sync.Mutex

	BeginFunc       func(ctx context.Context, opts ports.EncoderOptions) error
	EncodeFrameFunc func(index int, img image.Image) error
	EndFunc         func(timeout time.Duration) error

	// Recorded calls for verification
	BeginCalled bool
	Options     ports.EncoderOptions
	Frames      []*image.NRGBA
	EndCalled   bool
	EndTimeout  time.Duration
}

func (m *VideoEncoder) Begin(ctx context.Context, opts ports.EncoderOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BeginCalled = true
	m.Options = opts
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, opts)
	}
	return nil
}

func (m *VideoEncoder) EncodeFrame(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EncodeFrameFunc != nil {
		if err := m.EncodeFrameFunc(len(m.Frames), img); err != nil {
			return err
		}
	}
	src := compositor.Normalize(img)
	dup := *src
	dup.Pix = append([]uint8(nil), src.Pix...)
	m.Frames = append(m.Frames, &dup)
	return nil
}

func (m *VideoEncoder) End(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndCalled = true
	m.EndTimeout = timeout
	if m.EndFunc != nil {
		return m.EndFunc(timeout)
	}
	return nil
}

// FrameCount returns the number of accepted frames.
func (m *VideoEncoder) FrameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Frames)
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)
