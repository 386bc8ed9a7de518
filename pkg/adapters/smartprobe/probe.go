// Package smartprobe selects a metadata prober based on the source container.
package smartprobe

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/longexposure/pkg/adapters/ffprobe"
	"github.com/user/longexposure/pkg/adapters/mp4probe"
	"github.com/user/longexposure/pkg/pipeline"
	"github.com/user/longexposure/pkg/ports"
)

// Mode selects the probing backend.
type Mode string

const (
	// ModeAuto parses MP4/MOV natively and uses ffprobe for everything else.
	ModeAuto Mode = "auto"
	// ModeFFprobe always runs ffprobe.
	ModeFFprobe Mode = "ffprobe"
	// ModeMP4 only accepts MP4/MOV sources.
	ModeMP4 Mode = "mp4"
)

// ErrUnknownMode is returned for an unrecognized Mode.
var ErrUnknownMode = errors.New("smartprobe: unknown probe mode")

// ParseMode parses a mode name. An empty name selects ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeFFprobe, ModeMP4:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Prober implements ports.Prober by delegating to a backend.
type Prober struct {
	mode   Mode
	mp4    ports.Prober
	ffmpeg ports.Prober
	isMP4  func(path string) bool
	logger ports.Logger
}

// New creates a prober with the real backends.
func New(mode Mode, logger ports.Logger) *Prober {
	return NewWithBackends(mode, mp4probe.New(logger), ffprobe.New(logger), mp4probe.IsMP4File, logger)
}

// NewWithBackends creates a prober with explicit backends.
func NewWithBackends(mode Mode, mp4 ports.Prober, ffmpeg ports.Prober, isMP4 func(string) bool, logger ports.Logger) *Prober {
	return &Prober{
		mode:   mode,
		mp4:    mp4,
		ffmpeg: ffmpeg,
		isMP4:  isMP4,
		logger: logger.WithComponent("probe"),
	}
}

// Probe reads metadata from path.
//
// In auto mode an MP4 that mp4ff cannot parse, or that reports no frames,
// is retried with ffprobe.
func (p *Prober) Probe(ctx context.Context, path string) (pipeline.VideoMetadata, error) {
	switch p.mode {
	case ModeFFprobe:
		return p.ffmpeg.Probe(ctx, path)
	case ModeMP4:
		return p.mp4.Probe(ctx, path)
	case ModeAuto, "":
	default:
		return pipeline.VideoMetadata{}, fmt.Errorf("%w: %q", ErrUnknownMode, p.mode)
	}

	if !p.isMP4(path) {
		p.logger.Debug("Using ffprobe for %s", path)
		return p.ffmpeg.Probe(ctx, path)
	}

	meta, err := p.mp4.Probe(ctx, path)
	if err == nil && meta.FrameCount > 0 {
		p.logger.Debug("Using mp4 metadata for %s", path)
		return meta, nil
	}
	if err != nil {
		p.logger.Debug("mp4 probe failed, falling back to ffprobe: %s", err)
	}
	return p.ffmpeg.Probe(ctx, path)
}

// Ensure Prober implements ports.Prober
var _ ports.Prober = (*Prober)(nil)
