// Package ffprobe reads source metadata by running ffprobe with frame counting.
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/user/longexposure/pkg/adapters/ffmpegbin"
	"github.com/user/longexposure/pkg/pipeline"
	"github.com/user/longexposure/pkg/ports"
)

// Prober implements ports.Prober with ffprobe.
type Prober struct {
	logger ports.Logger
}

// New creates a new ffprobe prober.
func New(logger ports.Logger) *Prober {
	return &Prober{logger: logger.WithComponent("ffprobe")}
}

// Args returns the ffprobe arguments used for path. Frames are counted by
// decoding, so the count reflects decodable frames rather than the header.
func Args(path string) []string {
	return []string{
		"-v", "error",
		"-count_frames",
		"-show_streams",
		"-of", "json",
		path,
	}
}

// Probe runs ffprobe on path.
func (p *Prober) Probe(ctx context.Context, path string) (pipeline.VideoMetadata, error) {
	ffprobePath, err := ffmpegbin.FindFFprobe()
	if err != nil {
		return pipeline.VideoMetadata{}, err
	}

	p.logger.Debug("Probing %s", path)

	var stdout, stderr bytes.Buffer
	cmd := ffmpegbin.CommandContext(ctx, ffprobePath, Args(path)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return pipeline.VideoMetadata{}, fmt.Errorf("ffprobe failed: %w\nstderr: %s", err, stderr.String())
	}

	return Parse(stdout.Bytes())
}

// output mirrors the subset of ffprobe's JSON that is read.
type output struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
	NbReadFrames string `json:"nb_read_frames"`
}

// Parse converts ffprobe JSON output to metadata. Dimensions, rate and
// frame count come from the first video stream.
func Parse(data []byte) (pipeline.VideoMetadata, error) {
	var out output
	if err := json.Unmarshal(data, &out); err != nil {
		return pipeline.VideoMetadata{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var meta pipeline.VideoMetadata
	var video *stream
	for i := range out.Streams {
		s := &out.Streams[i]
		meta.Streams = append(meta.Streams, pipeline.StreamInfo{
			Index:     s.Index,
			CodecType: s.CodecType,
			CodecName: s.CodecName,
		})
		if s.CodecType == "video" && video == nil {
			video = s
		}
	}
	if video == nil {
		return meta, nil
	}

	meta.Width = video.Width
	meta.Height = video.Height
	meta.CodecName = video.CodecName

	rate := video.RFrameRate
	if rate == "" || rate == "0/0" {
		rate = video.AvgFrameRate
	}
	if r, err := pipeline.ParseRational(rate); err == nil {
		meta.FrameRate = r
	}

	count, err := frameCount(video)
	if err != nil {
		return meta, err
	}
	meta.FrameCount = count

	return meta, nil
}

func frameCount(s *stream) (int, error) {
	for _, v := range []string{s.NbReadFrames, s.NbFrames} {
		if v == "" || v == "N/A" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parse frame count %q: %w", v, err)
		}
		return n, nil
	}
	return 0, nil
}

// Ensure Prober implements ports.Prober
var _ ports.Prober = (*Prober)(nil)
