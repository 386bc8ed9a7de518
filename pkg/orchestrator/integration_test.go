package orchestrator

import (
	"context"
	"image"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/longexposure/pkg/adapters/ffmpegbin"
	"github.com/user/longexposure/pkg/adapters/ffmpegdecoder"
	"github.com/user/longexposure/pkg/adapters/ffmpegencoder"
	"github.com/user/longexposure/pkg/adapters/logger"
	"github.com/user/longexposure/pkg/adapters/mp4probe"
	"github.com/user/longexposure/pkg/adapters/nullsink"
	"github.com/user/longexposure/pkg/adapters/smartprobe"
	"github.com/user/longexposure/pkg/pipeline"
	"github.com/user/longexposure/pkg/ports"
)

func makeSource(t *testing.T, frames int) string {
	t.Helper()

	ffmpegPath, err := ffmpegbin.FindFFmpeg()
	if err != nil {
		t.Skip("ffmpeg not available")
	}

	path := filepath.Join(t.TempDir(), "source.mp4")
	cmd := exec.Command(ffmpegPath,
		"-v", "error", "-y",
		"-f", "lavfi", "-i", "testsrc=size=32x24:rate=10",
		"-frames:v", strconv.Itoa(frames),
		"-c:v", "mpeg4",
		path,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("generate source: %v\n%s", err, out)
	}
	return path
}

func newRealOrchestrator() *Orchestrator {
	log := logger.NewNoop()
	return New(smartprobe.New(smartprobe.ModeAuto, log), ffmpegdecoder.New(log), ffmpegencoder.New(log), nullsink.New(), log)
}

func TestIntegration_FullRun(t *testing.T) {
	src := makeSource(t, 6)
	out := filepath.Join(t.TempDir(), "out.mp4")

	o := newRealOrchestrator()
	cfg := testConfig()
	cfg.InputPath = src
	cfg.OutputPath = out
	cfg.Codec = "mpeg4"
	cfg.FPS = 10

	result, err := o.Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, result.FramesWritten)
	assert.Equal(t, 32, result.Metadata.Width)
	assert.Equal(t, 24, result.Metadata.Height)

	n, err := mp4probe.CountFrames(out)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestIntegration_CancelledRunIsPlayable(t *testing.T) {
	src := makeSource(t, 8)
	out := filepath.Join(t.TempDir(), "out.mp4")

	o := newRealOrchestrator()
	stop := &pipeline.StopFlag{}
	cfg := testConfig()
	cfg.InputPath = src
	cfg.OutputPath = out
	cfg.Codec = "mpeg4"

	// Stop once the decoder has been asked for frame 3.
	o.decoder = stopAfter{inner: o.decoder, stop: stop, index: 3}

	result, err := o.Run(context.Background(), cfg, stop)
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 4, result.FramesWritten)

	n, err := mp4probe.CountFrames(out)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

// stopAfter requests a stop while frame index is being decoded, standing in
// for a signal that arrives mid-frame.
type stopAfter struct {
	inner ports.FrameDecoder
	stop  *pipeline.StopFlag
	index int
}

func (s stopAfter) DecodeFrame(ctx context.Context, path string, index int) (*image.NRGBA, error) {
	if index == s.index {
		s.stop.Request()
	}
	return s.inner.DecodeFrame(ctx, path, index)
}
