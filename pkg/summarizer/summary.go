// Package summarizer provides summary generation for long-exposure runs.
package summarizer

import (
	"time"

	"github.com/user/longexposure/pkg/orchestrator"
	"github.com/user/longexposure/pkg/pipeline"
)

// Summary contains all data collected during a run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Source video
	Source SourceInfo

	// Run settings
	Settings Settings

	// Run outcome
	Run RunInfo

	// Output video details
	Output OutputInfo
}

// SourceInfo describes the probed source video.
type SourceInfo struct {
	Path       string
	Width      int
	Height     int
	FrameRate  string
	FrameCount int
	Codec      string
}

// Settings contains the encoding configuration.
type Settings struct {
	Codec            string
	PixelFormat      string
	FPS              float64
	Probe            string
	StrictFrameCount bool
}

// RunInfo describes how the run ended.
type RunInfo struct {
	FramesWritten int
	TotalFrames   int
	Cancelled     bool
	Truncated     bool
	Elapsed       time.Duration
	Error         string
}

// OutputInfo contains information about the output video.
type OutputInfo struct {
	Path     string
	FileSize int64
	// VerifiedFrames is the frame count read back from the output container,
	// or -1 when it could not be read.
	VerifiedFrames int
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
		Output:      OutputInfo{VerifiedFrames: -1},
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets source information from probed metadata.
func (b *Builder) WithSource(path string, meta pipeline.VideoMetadata) *Builder {
	b.summary.Source = SourceInfo{
		Path:       path,
		Width:      meta.Width,
		Height:     meta.Height,
		FrameRate:  meta.FrameRate.String(),
		FrameCount: meta.FrameCount,
		Codec:      meta.CodecName,
	}
	return b
}

// WithSettings sets run settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithRun sets the run outcome. err is the error returned by the run, if any.
func (b *Builder) WithRun(result orchestrator.RunResult, err error) *Builder {
	b.summary.Run = RunInfo{
		FramesWritten: result.FramesWritten,
		TotalFrames:   result.TotalFrames,
		Cancelled:     result.Cancelled,
		Truncated:     result.Truncated,
		Elapsed:       result.Elapsed,
	}
	if err != nil {
		b.summary.Run.Error = err.Error()
	}
	if result.FPS > 0 {
		b.summary.Settings.FPS = result.FPS
	}
	return b
}

// WithOutput sets output file information.
func (b *Builder) WithOutput(path string, fileSize int64, verifiedFrames int) *Builder {
	b.summary.Output = OutputInfo{
		Path:           path,
		FileSize:       fileSize,
		VerifiedFrames: verifiedFrames,
	}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
