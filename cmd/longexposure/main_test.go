package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/longexposure/pkg/adapters/logger"
	"github.com/user/longexposure/pkg/config"
	"github.com/user/longexposure/pkg/mocks"
	"github.com/user/longexposure/pkg/pipeline"
	"github.com/user/longexposure/pkg/ports"
)

func parse(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	var got config.Config
	app := newApp(func(cfg config.Config) error {
		got = cfg
		return nil
	})
	err := app.Run(append([]string{"longexposure"}, args...))
	return got, err
}

func TestBuildConfig_Defaults(t *testing.T) {
	cfg, err := parse(t, "in.mp4", "out.mp4")
	require.NoError(t, err)
	assert.Equal(t, "in.mp4", cfg.InputPath)
	assert.Equal(t, "out.mp4", cfg.OutputPath)
	assert.Equal(t, 30.0, cfg.FPS)
	assert.Equal(t, "libx264", cfg.Codec)
	assert.Equal(t, "auto", cfg.Probe)
}

func TestBuildConfig_Flags(t *testing.T) {
	cfg, err := parse(t,
		"--fps", "24",
		"--codec", "libvpx-vp9",
		"--pixel-format", "",
		"--probe", "ffprobe",
		"--strict-frame-count",
		"--finalize-timeout", "5s",
		"--log-format", "json",
		"--debug-plain",
		"-Q",
		"in.mov", "out.webm",
	)
	require.NoError(t, err)
	assert.Equal(t, 24.0, cfg.FPS)
	assert.Equal(t, "libvpx-vp9", cfg.Codec)
	assert.Empty(t, cfg.PixelFormat)
	assert.Equal(t, "ffprobe", cfg.Probe)
	assert.True(t, cfg.StrictFrameCount)
	assert.Equal(t, 5*time.Second, cfg.FinalizeTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "quiet", cfg.LogLevel)
	assert.True(t, cfg.DebugPlain)
}

func TestBuildConfig_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: a.mp4\noutput: b.mp4\nfps: 12\ncodec: mpeg4\n"), 0644))

	cfg, err := parse(t, "--config", path, "--fps", "60")
	require.NoError(t, err)
	assert.Equal(t, "a.mp4", cfg.InputPath)
	assert.Equal(t, "b.mp4", cfg.OutputPath)
	assert.Equal(t, "mpeg4", cfg.Codec)
	assert.Equal(t, 60.0, cfg.FPS)

	cfg, err = parse(t, "--config", path, "c.mp4", "d.mp4")
	require.NoError(t, err)
	assert.Equal(t, "c.mp4", cfg.InputPath)
	assert.Equal(t, "d.mp4", cfg.OutputPath)
}

func TestBuildConfig_Errors(t *testing.T) {
	_, err := parse(t)
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = parse(t, "in.mp4")
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = parse(t, "a", "b", "c")
	assert.Error(t, err)

	_, err = parse(t, "--probe", "vlc", "in.mp4", "out.mp4")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestNewDebugSink(t *testing.T) {
	blue := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for i := 0; i < len(blue.Pix); i += 4 {
		copy(blue.Pix[i:], []byte{0, 0, 255, 255})
	}

	// cornerBlue saves frame 0 through the sink and returns the blue channel
	// of the top-left pixel, where the frame label is drawn.
	cornerBlue := func(t *testing.T, cfg config.Config) uint8 {
		t.Helper()
		fs := mocks.NewFileSystem()
		sink, err := newDebugSink(cfg, fs)
		require.NoError(t, err)
		require.True(t, sink.Enabled())
		require.NoError(t, sink.SaveComposedFrame(0, blue))

		data, ok := fs.GetFile(filepath.Join(cfg.DebugDir, "frames", "composed", "frame-0000.png"))
		require.True(t, ok)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		return color.NRGBAModel.Convert(img.At(1, 1)).(color.NRGBA).B
	}

	cfg := config.Defaults()
	cfg.DebugDir = "debug"

	sink, err := newDebugSink(cfg, mocks.NewFileSystem())
	require.NoError(t, err)
	assert.False(t, sink.Enabled())

	cfg.Debug = true
	assert.Less(t, cornerBlue(t, cfg), uint8(255), "labelled frame darkens the corner")

	cfg.DebugPlain = true
	assert.Equal(t, uint8(255), cornerBlue(t, cfg))
}

func TestWatchSignals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var logs bytes.Buffer
	sigCh := make(chan os.Signal, 2)
	stop := &pipeline.StopFlag{}
	done := make(chan struct{})
	go func() {
		watchSignals(ctx, sigCh, stop, cancel, logger.NewStructuredWriter(&logs, ports.LevelInfo))
		close(done)
	}()

	sigCh <- syscall.SIGINT
	require.Eventually(t, stop.Requested, time.Second, time.Millisecond)
	assert.NoError(t, ctx.Err(), "first signal only requests a stop")

	sigCh <- syscall.SIGINT
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not return after the second signal")
	}
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	// A stop request is routine; only the forced shutdown is a warning.
	var levels []string
	dec := json.NewDecoder(&logs)
	for dec.More() {
		var line map[string]interface{}
		require.NoError(t, dec.Decode(&line))
		levels = append(levels, line["level"].(string))
	}
	assert.Equal(t, []string{"info", "warning"}, levels)
}

func TestWatchSignals_ReturnsOnDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stop := &pipeline.StopFlag{}
	done := make(chan struct{})
	go func() {
		watchSignals(ctx, make(chan os.Signal), stop, cancel, logger.NewNoop())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not return")
	}
	assert.False(t, stop.Requested())
}

func TestVerifyFrames_SkipsOtherContainers(t *testing.T) {
	assert.Equal(t, -1, verifyFrames("out.mkv", logger.NewNoop()))
	assert.Equal(t, -1, verifyFrames(filepath.Join(t.TempDir(), "missing.mp4"), logger.NewNoop()))
}
