// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/fogleman/gg"

	"github.com/user/longexposure/pkg/ports"
)

// Sink saves debug output to files under baseDir.
//
// Layout:
//
//	metadata.json
//	frames/composed/frame-0000.png
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	annotate bool
}

// New creates a new FileSink. Composed frames are stamped with their index.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		annotate: true,
	}
}

// NewPlain creates a FileSink that saves composed frames unmodified.
func NewPlain(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{baseDir: baseDir, fs: fs}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveMetadataJSON saves the probed source metadata as JSON.
func (s *Sink) SaveMetadataJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "metadata.json")
	return s.fs.WriteFile(path, data)
}

// SaveComposedFrame saves a composed frame as PNG.
func (s *Sink) SaveComposedFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames", "composed")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}

	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	if s.annotate {
		label := fmt.Sprintf("#%d", index)
		w, h := dc.MeasureString(label)
		dc.SetColor(color.NRGBA{0, 0, 0, 160})
		dc.DrawRectangle(0, 0, w+8, h+8)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawStringAnchored(label, 4, 4+h/2, 0, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return fmt.Errorf("encode composed frame: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index))
	return s.fs.WriteFile(path, buf.Bytes())
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
