// Package mp4probe reads source metadata from MP4/MOV containers without an
// external process.
package mp4probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/longexposure/pkg/pipeline"
	"github.com/user/longexposure/pkg/ports"
)

// ErrNotMP4 is returned when the input does not start with an ftyp box.
var ErrNotMP4 = errors.New("mp4probe: not an MP4 file")

// Prober implements ports.Prober for ISO-BMFF files.
type Prober struct {
	logger ports.Logger
}

// New creates a new MP4 prober.
func New(logger ports.Logger) *Prober {
	return &Prober{logger: logger.WithComponent("mp4probe")}
}

// Probe parses the boxes of path. The frame count is the number of samples
// in the first video track.
func (p *Prober) Probe(ctx context.Context, path string) (pipeline.VideoMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return pipeline.VideoMetadata{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	p.logger.Debug("Probing %s", path)
	return ProbeReader(f)
}

// IsMP4 reports whether r starts with an ftyp box. The reader is rewound.
func IsMP4(r io.ReadSeeker) bool {
	header := make([]byte, 8)
	_, err := io.ReadFull(r, header)
	r.Seek(0, io.SeekStart)
	return err == nil && string(header[4:8]) == "ftyp"
}

// IsMP4File reports whether the file at path starts with an ftyp box.
func IsMP4File(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return IsMP4(f)
}

// ProbeReader parses MP4 metadata from r.
func ProbeReader(r io.ReadSeeker) (pipeline.VideoMetadata, error) {
	if !IsMP4(r) {
		return pipeline.VideoMetadata{}, ErrNotMP4
	}

	mp4File, err := mp4.DecodeFile(r, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return pipeline.VideoMetadata{}, fmt.Errorf("decode mp4: %w", err)
	}

	return fromFile(mp4File)
}

// CountFrames returns the number of video samples in the MP4 file at path.
func CountFrames(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	meta, err := ProbeReader(f)
	if err != nil {
		return 0, err
	}
	if len(meta.VideoStreams()) == 0 {
		return 0, fmt.Errorf("no video track found")
	}
	return meta.FrameCount, nil
}

func fromFile(mp4File *mp4.File) (pipeline.VideoMetadata, error) {
	var moov *mp4.MoovBox
	if mp4File.IsFragmented() && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	} else {
		moov = mp4File.Moov
	}
	if moov == nil {
		return pipeline.VideoMetadata{}, fmt.Errorf("no moov box found")
	}

	var meta pipeline.VideoMetadata
	videoFound := false

	for i, trak := range moov.Traks {
		info := pipeline.StreamInfo{Index: i, CodecType: codecType(trak), CodecName: codecName(trak)}
		meta.Streams = append(meta.Streams, info)

		if info.CodecType != "video" || videoFound {
			continue
		}
		videoFound = true

		meta.CodecName = info.CodecName
		meta.Width, meta.Height = dimensions(trak)
		meta.FrameRate = frameRate(trak)

		if mp4File.IsFragmented() {
			if trak.Tkhd == nil {
				return pipeline.VideoMetadata{}, fmt.Errorf("video track %d has no tkhd", i)
			}
			meta.FrameCount = fragmentedSampleCount(mp4File, trak.Tkhd.TrackID)
		} else if stbl := sampleTable(trak); stbl != nil && stbl.Stsz != nil {
			meta.FrameCount = int(stbl.Stsz.SampleNumber)
		}
	}

	return meta, nil
}

func codecType(trak *mp4.TrakBox) string {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return "data"
	}
	switch trak.Mdia.Hdlr.HandlerType {
	case "vide":
		return "video"
	case "soun":
		return "audio"
	case "subt", "text", "sbtl", "clcp":
		return "subtitle"
	default:
		return "data"
	}
}

func sampleTable(trak *mp4.TrakBox) *mp4.StblBox {
	if trak.Mdia == nil || trak.Mdia.Minf == nil {
		return nil
	}
	return trak.Mdia.Minf.Stbl
}

func codecName(trak *mp4.TrakBox) string {
	stbl := sampleTable(trak)
	if stbl == nil || stbl.Stsd == nil {
		return ""
	}
	for _, child := range stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return "h264"
		case "hvc1", "hev1":
			return "hevc"
		case "av01":
			return "av1"
		case "vp08":
			return "vp8"
		case "vp09":
			return "vp9"
		case "mp4v":
			return "mpeg4"
		case "mp4a":
			return "aac"
		default:
			return child.Type()
		}
	}
	return ""
}

func dimensions(trak *mp4.TrakBox) (int, int) {
	if stbl := sampleTable(trak); stbl != nil && stbl.Stsd != nil {
		for _, child := range stbl.Stsd.Children {
			if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
				return int(vse.Width), int(vse.Height)
			}
		}
	}
	if trak.Tkhd != nil {
		return int(uint32(trak.Tkhd.Width) >> 16), int(uint32(trak.Tkhd.Height) >> 16)
	}
	return 0, 0
}

// frameRate derives timescale/delta from the first stts entry. Variable
// frame rate files report their first delta.
func frameRate(trak *mp4.TrakBox) pipeline.Rational {
	if trak.Mdia == nil || trak.Mdia.Mdhd == nil {
		return pipeline.Rational{}
	}
	timescale := int(trak.Mdia.Mdhd.Timescale)
	stbl := sampleTable(trak)
	if stbl == nil || stbl.Stts == nil || len(stbl.Stts.SampleTimeDelta) == 0 || stbl.Stts.SampleTimeDelta[0] == 0 {
		return pipeline.Rational{}
	}
	return reduce(timescale, int(stbl.Stts.SampleTimeDelta[0]))
}

func fragmentedSampleCount(mp4File *mp4.File, trackID uint32) int {
	count := 0
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd == nil || traf.Tfhd.TrackID != trackID {
					continue
				}
				for _, trun := range traf.Truns {
					count += int(trun.SampleCount())
				}
			}
		}
	}
	return count
}

func reduce(num, den int) pipeline.Rational {
	a, b := num, den
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return pipeline.Rational{Num: num, Den: den}
	}
	return pipeline.Rational{Num: num / a, Den: den / a}
}

// Ensure Prober implements ports.Prober
var _ ports.Prober = (*Prober)(nil)
