// Package ffmpegbin locates the ffmpeg and ffprobe executables and prepares
// their commands.
package ffmpegbin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg is not found.
	ErrFFmpegNotFound = errors.New("ffmpegbin: ffmpeg not found in PATH")

	// ErrFFprobeNotFound is returned when ffprobe is not found.
	ErrFFprobeNotFound = errors.New("ffmpegbin: ffprobe not found in PATH")
)

var (
	mu                sync.RWMutex
	customFFmpegPath  string
	customFFprobePath string
)

// SetFFmpegPath sets a custom ffmpeg path that takes precedence over every
// other lookup. An empty path restores the default lookup.
func SetFFmpegPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	customFFmpegPath = path
}

// SetFFprobePath sets a custom ffprobe path.
func SetFFprobePath(path string) {
	mu.Lock()
	defer mu.Unlock()
	customFFprobePath = path
}

// IsFFmpegAvailable checks if ffmpeg is available on the system.
func IsFFmpegAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// IsFFprobeAvailable checks if ffprobe is available on the system.
func IsFFprobeAvailable() bool {
	_, err := FindFFprobe()
	return err == nil
}

// FindFFmpeg searches for ffmpeg.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg() (string, error) {
	mu.RLock()
	custom := customFFmpegPath
	mu.RUnlock()
	return find("ffmpeg", custom, "FFMPEG_PATH", ErrFFmpegNotFound)
}

// FindFFprobe searches for ffprobe.
// Priority: 1) SetFFprobePath, 2) FFPROBE_PATH env, 3) next to the resolved
// ffmpeg, 4) PATH, 5) common locations
func FindFFprobe() (string, error) {
	mu.RLock()
	custom := customFFprobePath
	mu.RUnlock()
	if custom == "" && os.Getenv("FFPROBE_PATH") == "" {
		if ffmpeg, err := FindFFmpeg(); err == nil {
			sibling := filepath.Join(filepath.Dir(ffmpeg), execName("ffprobe"))
			if _, err := os.Stat(sibling); err == nil {
				return sibling, nil
			}
		}
	}
	return find("ffprobe", custom, "FFPROBE_PATH", ErrFFprobeNotFound)
}

func find(tool, custom, envVar string, notFound error) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", notFound, custom)
	}

	if envPath := os.Getenv(envVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: %s %s not found", notFound, envVar, envPath)
	}

	if path, err := exec.LookPath(execName(tool)); err == nil {
		return path, nil
	}

	for _, dir := range commonDirs() {
		p := filepath.Join(dir, execName(tool))
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", notFound
}

func execName(tool string) string {
	if runtime.GOOS == "windows" {
		return tool + ".exe"
	}
	return tool
}

func commonDirs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\ffmpeg\bin`,
			`C:\Program Files\ffmpeg\bin`,
			`C:\Program Files (x86)\ffmpeg\bin`,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/bin",
			"/usr/local/bin",
			"/usr/bin",
		}
	default:
		return []string{
			"/usr/bin",
			"/usr/local/bin",
			"/opt/homebrew/bin",
			"/snap/bin",
		}
	}
}

// CommandContext builds a command for a collaborator process that is killed
// when ctx is done. The process is detached from the terminal's process group
// so an interactive ^C reaches only this program, which then finalizes the
// collaborator itself.
func CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	detach(cmd)
	return cmd
}
