package ffmpegencoder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/bmp"

	"github.com/user/longexposure/pkg/adapters/ffmpegbin"
	"github.com/user/longexposure/pkg/adapters/logger"
	"github.com/user/longexposure/pkg/pipeline"
	"github.com/user/longexposure/pkg/ports"
)

// useFakeFFmpeg installs a shell script as ffmpeg for the rest of the test.
// The script records its arguments, one per line, in the returned file.
func useFakeFFmpeg(t *testing.T, body string) (argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stand-in needs a POSIX shell")
	}

	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > '" + argsFile + "'\n" + body + "\n"
	path := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	ffmpegbin.SetFFmpegPath(path)
	t.Cleanup(func() { ffmpegbin.SetFFmpegPath("") })
	return argsFile
}

func TestEncoder_WritesBMPStream(t *testing.T) {
	// Copy stdin to the last argument, the output path.
	argsFile := useFakeFFmpeg(t, `for out; do :; done
cat > "$out"`)

	output := filepath.Join(t.TempDir(), "out.mp4")
	enc := New(logger.NewNoop())
	if err := enc.Begin(context.Background(), ports.EncoderOptions{
		OutputPath:  output,
		FPS:         12.5,
		Codec:       "libx264",
		PixelFormat: "yuv420p",
	}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	first := createTestImage(8, 6, 0)
	second := createTestImage(8, 6, 1)
	if err := enc.EncodeFrame(first); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if err := enc.EncodeFrame(second); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if err := enc.End(0); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if enc.FrameCount() != 2 {
		t.Errorf("expected 2 frames, got %d", enc.FrameCount())
	}

	var single bytes.Buffer
	if err := bmp.Encode(&single, first); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if len(data) != 2*single.Len() {
		t.Fatalf("expected two %d byte bitmaps, got %d bytes", single.Len(), len(data))
	}

	got, err := bmp.Decode(bytes.NewReader(data[single.Len():]))
	if err != nil {
		t.Fatalf("second frame is not a BMP: %v", err)
	}
	r1, g1, b1, _ := got.At(3, 2).RGBA()
	r2, g2, b2, _ := second.At(3, 2).RGBA()
	if r1>>8 != r2>>8 || g1>>8 != g2>>8 || b1>>8 != b2>>8 {
		t.Errorf("second frame pixel mismatch: got %v, want %v", got.At(3, 2), second.At(3, 2))
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join(Args(ports.EncoderOptions{
		OutputPath:  output,
		FPS:         12.5,
		Codec:       "libx264",
		PixelFormat: "yuv420p",
	}), "\n") + "\n"
	if string(args) != want {
		t.Errorf("unexpected ffmpeg arguments:\n%s", args)
	}
}

func TestEncoder_ExitedEarlyIsSinkFailure(t *testing.T) {
	useFakeFFmpeg(t, "echo 'Unknown encoder' >&2\nexit 1")

	enc := New(logger.NewNoop())
	if err := enc.Begin(context.Background(), ports.EncoderOptions{
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
		FPS:        30,
		Codec:      "nope",
	}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	// Frames larger than the pipe buffer guarantee a write hits the closed pipe.
	var writeErr error
	for i := 0; i < 50 && writeErr == nil; i++ {
		writeErr = enc.EncodeFrame(createTestImage(256, 256, i))
	}
	if !errors.Is(writeErr, pipeline.ErrSinkFailure) {
		t.Fatalf("expected ErrSinkFailure, got %v", writeErr)
	}
	var frameErr *pipeline.FrameError
	if !errors.As(writeErr, &frameErr) || frameErr.Op != "encode" {
		t.Errorf("expected encode FrameError, got %v", writeErr)
	}

	endErr := enc.End(5 * time.Second)
	if !errors.Is(endErr, pipeline.ErrFinalizeFailure) {
		t.Fatalf("expected ErrFinalizeFailure, got %v", endErr)
	}
	if !strings.Contains(endErr.Error(), "Unknown encoder") {
		t.Errorf("expected stderr in error, got %v", endErr)
	}
}

func TestEncoder_EndTimeoutKills(t *testing.T) {
	// Ignore stdin and never exit on our own.
	useFakeFFmpeg(t, "exec sleep 30")

	enc := New(logger.NewNoop())
	if err := enc.Begin(context.Background(), ports.EncoderOptions{
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
		FPS:        30,
		Codec:      "libx264",
	}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	start := time.Now()
	err := enc.End(200 * time.Millisecond)
	if !errors.Is(err, pipeline.ErrFinalizeFailure) {
		t.Fatalf("expected ErrFinalizeFailure, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("End waited %s despite the timeout", elapsed)
	}
}
