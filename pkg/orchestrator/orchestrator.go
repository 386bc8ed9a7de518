// Package orchestrator drives a long-exposure run: it primes the composite
// with the first frame, folds every later frame into it and streams each
// intermediate composite to the encoder.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/user/longexposure/pkg/compositor"
	"github.com/user/longexposure/pkg/pipeline"
	"github.com/user/longexposure/pkg/ports"
)

// State is a phase of a run.
type State int

const (
	StateInitializing State = iota
	StatePriming
	StateStreaming
	StateFinalizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StatePriming:
		return "priming"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Config contains all configuration for the orchestrator.
type Config struct {
	InputPath  string
	OutputPath string

	// Encoding. FPS <= 0 uses the source frame rate.
	FPS         float64
	Codec       string
	PixelFormat string

	// StrictFrameCount fails the run when the source holds fewer frames
	// than its metadata reports. Otherwise the run stops early and keeps
	// what was written.
	StrictFrameCount bool

	// FinalizeTimeout bounds the encoder shutdown after a failure.
	// A clean or cancelled run always waits for the encoder.
	FinalizeTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		FPS:             30.0,
		Codec:           "libx264",
		PixelFormat:     "yuv420p",
		FinalizeTimeout: 30 * time.Second,
	}
}

// RunResult contains the results of a pipeline run for summary generation.
type RunResult struct {
	FramesWritten int
	TotalFrames   int
	FPS           float64
	Cancelled     bool // stop requested before the last frame
	Truncated     bool // source ended before its reported frame count
	Metadata      pipeline.VideoMetadata
	Elapsed       time.Duration
}

// Orchestrator coordinates the frame source, the compositor and the frame sink.
type Orchestrator struct {
	prober  ports.Prober
	decoder ports.FrameDecoder
	encoder ports.VideoEncoder
	sink    ports.DebugSink
	logger  ports.Logger

	// OnStateChange is called on every state transition, if set.
	OnStateChange func(State)
}

// New creates a new Orchestrator.
func New(
	prober ports.Prober,
	decoder ports.FrameDecoder,
	encoder ports.VideoEncoder,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		prober:  prober,
		decoder: decoder,
		encoder: encoder,
		sink:    sink,
		logger:  logger,
	}
}

// run holds the mutable state of one Run call.
type run struct {
	config    Config
	stop      *pipeline.StopFlag
	result    RunResult
	composite *image.NRGBA
	started   time.Time
}

// Run executes the pipeline until every frame is written, stop is
// requested, or a frame fails. Once the encoder has started it is always
// finalized, so frames written before a failure remain playable.
//
// A cancelled or truncated run returns a nil error.
func (o *Orchestrator) Run(ctx context.Context, config Config, stop *pipeline.StopFlag) (RunResult, error) {
	r := &run{config: config, stop: stop, started: time.Now()}

	o.enter(StateInitializing)
	if err := o.initialize(ctx, r); err != nil {
		r.result.Elapsed = time.Since(r.started)
		return r.result, err
	}

	o.enter(StatePriming)
	runErr := o.prime(ctx, r)
	if runErr == nil {
		o.enter(StateStreaming)
		runErr = o.stream(ctx, r)
	}

	o.enter(StateFinalizing)
	runErr = o.finalize(r, runErr)

	o.enter(StateDone)
	r.result.Elapsed = time.Since(r.started)
	if runErr != nil {
		return r.result, runErr
	}
	o.logger.Info("Output saved to %s (%d frames)", config.OutputPath, r.result.FramesWritten)
	return r.result, nil
}

func (o *Orchestrator) enter(s State) {
	o.logger.Debug("State: %s", s)
	if o.OnStateChange != nil {
		o.OnStateChange(s)
	}
}

func (o *Orchestrator) initialize(ctx context.Context, r *run) error {
	o.logger.Info("Probing %s", r.config.InputPath)
	meta, err := o.prober.Probe(ctx, r.config.InputPath)
	if err != nil {
		o.logger.Error("Failed to probe source: %s", err)
		return fmt.Errorf("probe source: %w", err)
	}
	r.result.Metadata = meta
	r.result.TotalFrames = meta.FrameCount

	if n := len(meta.VideoStreams()); n != 1 {
		return fmt.Errorf("%w: %d video streams, need exactly 1", pipeline.ErrUnsupportedSource, n)
	}
	if meta.FrameCount < 1 {
		return fmt.Errorf("%w: no frames reported", pipeline.ErrUnsupportedSource)
	}
	o.logger.Info("Source: %dx%d, %d frames at %s fps (%s)",
		meta.Width, meta.Height, meta.FrameCount, meta.FrameRate, meta.CodecName)

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(meta, "", "  "); err == nil {
			if err := o.sink.SaveMetadataJSON(data); err != nil {
				o.logger.Warn("Debug snapshot failed: %s", err)
			}
		}
	}

	fps := r.config.FPS
	if fps <= 0 {
		fps = meta.FrameRate.Float()
	}
	if fps <= 0 {
		fps = DefaultConfig().FPS
	}
	r.result.FPS = fps

	o.logger.Info("Encoding to %s with %s", r.config.OutputPath, r.config.Codec)
	return o.encoder.Begin(ctx, ports.EncoderOptions{
		OutputPath:  r.config.OutputPath,
		FPS:         fps,
		Codec:       r.config.Codec,
		PixelFormat: r.config.PixelFormat,
	})
}

func (o *Orchestrator) prime(ctx context.Context, r *run) error {
	frame, err := o.decoder.DecodeFrame(ctx, r.config.InputPath, 0)
	if err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrPrimingFailure, err)
	}
	meta := r.result.Metadata
	if b := frame.Bounds(); meta.Width > 0 && (b.Dx() != meta.Width || b.Dy() != meta.Height) {
		// Display rotation makes the decoder emit transposed frames.
		o.logger.Warn("Frame size %dx%d differs from reported %dx%d", b.Dx(), b.Dy(), meta.Width, meta.Height)
	}

	r.composite = frame
	if err := o.write(r, 0); err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrPrimingFailure, err)
	}
	return nil
}

func (o *Orchestrator) stream(ctx context.Context, r *run) error {
	total := r.result.TotalFrames
	if o.stopRequested(r, 0) {
		return nil
	}
	for index := 1; index < total; index++ {
		frame, err := o.decoder.DecodeFrame(ctx, r.config.InputPath, index)
		if err != nil {
			if errors.Is(err, pipeline.ErrFrameUnavailable) && !r.config.StrictFrameCount {
				o.logger.Warn("Source ended after %d of %d frames", index, total)
				r.result.Truncated = true
				return nil
			}
			if errors.Is(err, pipeline.ErrFrameUnavailable) {
				return fmt.Errorf("%w: %w", pipeline.ErrDecodeFailure, err)
			}
			return err
		}

		next, err := compositor.Blend(r.composite, frame)
		if err != nil {
			return &pipeline.FrameError{Index: index, Op: "blend", Err: err}
		}
		r.composite = next

		if err := o.write(r, index); err != nil {
			return err
		}
		if o.stopRequested(r, index) {
			return nil
		}
	}
	return nil
}

// stopRequested polls the stop flag after frame index has been written.
func (o *Orchestrator) stopRequested(r *run, index int) bool {
	if !r.stop.Requested() {
		return false
	}
	if index < r.result.TotalFrames-1 {
		r.result.Cancelled = true
	}
	o.logger.Info("Stopping after frame %d/%d", index+1, r.result.TotalFrames)
	return true
}

func (o *Orchestrator) write(r *run, index int) error {
	if err := o.encoder.EncodeFrame(r.composite); err != nil {
		return err
	}
	r.result.FramesWritten++
	o.logger.Info("Frame %d/%d", index+1, r.result.TotalFrames)

	if o.sink.Enabled() {
		if err := o.sink.SaveComposedFrame(index, r.composite); err != nil {
			o.logger.Warn("Debug snapshot failed: %s", err)
		}
	}
	return nil
}

// finalize closes the encoder. After a failure the wait is bounded and the
// finalize error is joined to the original one.
func (o *Orchestrator) finalize(r *run, runErr error) error {
	o.logger.Info("Finalizing output")

	timeout := time.Duration(0)
	if runErr != nil {
		timeout = r.config.FinalizeTimeout
	}
	if err := o.encoder.End(timeout); err != nil {
		o.logger.Error("Failed to finalize output: %s", err)
		return errors.Join(runErr, err)
	}
	return runErr
}
