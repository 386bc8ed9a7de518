// Package ffmpegencoder streams BMP frames into a long-running ffmpeg process
// that writes the output video.
package ffmpegencoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"golang.org/x/image/bmp"

	"github.com/user/longexposure/pkg/adapters/ffmpegbin"
	"github.com/user/longexposure/pkg/pipeline"
	"github.com/user/longexposure/pkg/ports"
)

// ErrNotStarted is returned when frames are written before Begin or after End.
var ErrNotStarted = errors.New("ffmpegencoder: encoder not started")

// Encoder implements ports.VideoEncoder using an ffmpeg bmp_pipe input.
type Encoder struct {
	logger ports.Logger

	mu         sync.Mutex
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stderr     syncBuffer
	buf        bytes.Buffer
	frameCount int
	closed     bool
}

// New creates a new encoder.
func New(logger ports.Logger) *Encoder {
	return &Encoder{logger: logger.WithComponent("encoder")}
}

// Args returns the ffmpeg arguments for the given options.
func Args(opts ports.EncoderOptions) []string {
	args := []string{
		"-nostdin",
		"-y",          // Overwrite output
		"-v", "error", // Diagnostics only
		"-f", "bmp_pipe",
		"-framerate", strconv.FormatFloat(opts.FPS, 'f', -1, 64),
		"-i", "pipe:0", // Read from stdin
		"-c:v", opts.Codec,
	}
	if opts.PixelFormat != "" {
		args = append(args, "-pix_fmt", opts.PixelFormat)
	}
	return append(args, opts.OutputPath)
}

// Begin starts ffmpeg. The process is killed if ctx is cancelled.
func (e *Encoder) Begin(ctx context.Context, opts ports.EncoderOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if opts.FPS <= 0 {
		return fmt.Errorf("ffmpegencoder: invalid frame rate %v", opts.FPS)
	}
	if opts.Codec == "" {
		return fmt.Errorf("ffmpegencoder: codec is required")
	}

	ffmpegPath, err := ffmpegbin.FindFFmpeg()
	if err != nil {
		return err
	}

	e.frameCount = 0
	e.closed = false
	e.stderr.Reset()

	e.cmd = ffmpegbin.CommandContext(ctx, ffmpegPath, Args(opts)...)
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	e.stdin = stdin

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	e.logger.Debug("Encoder started: %s at %v fps with %s", opts.OutputPath, opts.FPS, opts.Codec)
	return nil
}

// EncodeFrame writes img to ffmpeg's stdin as one BMP. It returns once the
// pipe has accepted every byte.
func (e *Encoder) EncodeFrame(img image.Image) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil || e.closed {
		return fmt.Errorf("%w: %w", pipeline.ErrSinkFailure, ErrNotStarted)
	}

	e.buf.Reset()
	if err := bmp.Encode(&e.buf, img); err != nil {
		return fmt.Errorf("%w: encode bmp: %w", pipeline.ErrSinkFailure, err)
	}

	if _, err := e.stdin.Write(e.buf.Bytes()); err != nil {
		return &pipeline.FrameError{
			Index:       e.frameCount,
			Op:          "encode",
			Diagnostics: e.stderr.String(),
			Err:         fmt.Errorf("%w: write frame: %w", pipeline.ErrSinkFailure, err),
		}
	}

	e.frameCount++
	return nil
}

// End closes stdin and waits for ffmpeg to write the container trailer.
// With a positive timeout ffmpeg is killed once the timeout passes.
func (e *Encoder) End(timeout time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil || e.closed {
		return ErrNotStarted
	}
	e.closed = true

	// Close stdin to signal end of input
	e.stdin.Close()
	e.stdin = nil

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: ffmpeg: %w\nstderr: %s", pipeline.ErrFinalizeFailure, err, e.stderr.String())
		}
	case <-timer:
		e.cmd.Process.Kill()
		<-done
		return fmt.Errorf("%w: ffmpeg did not exit within %s", pipeline.ErrFinalizeFailure, timeout)
	}

	e.logger.Debug("Encoder finished after %d frames", e.frameCount)
	return nil
}

// FrameCount returns the number of frames accepted so far.
func (e *Encoder) FrameCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameCount
}

// syncBuffer collects ffmpeg's stderr. exec copies into it from its own
// goroutine while the process runs.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// Ensure Encoder implements ports.VideoEncoder
var _ ports.VideoEncoder = (*Encoder)(nil)
