// Package pipeline holds the types shared by the long-exposure pipeline.
package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// StreamInfo describes one elementary stream of a source container.
type StreamInfo struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"` // video, audio, subtitle, data
	CodecName string `json:"codec_name"`
}

// VideoMetadata describes the source video. It is read once per run.
type VideoMetadata struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	FrameRate  Rational     `json:"frame_rate"`
	FrameCount int          `json:"frame_count"`
	CodecName  string       `json:"codec_name"`
	Streams    []StreamInfo `json:"streams"`
}

// VideoStreams returns the streams whose codec type is video.
func (m VideoMetadata) VideoStreams() []StreamInfo {
	var streams []StreamInfo
	for _, s := range m.Streams {
		if s.CodecType == "video" {
			streams = append(streams, s)
		}
	}
	return streams
}

// Rational is a frame rate expressed as num/den, as containers report it.
type Rational struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

// ParseRational parses "30000/1001" or "25" forms.
func ParseRational(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rational{}, fmt.Errorf("empty rational")
	}
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.Atoi(num)
	if err != nil {
		return Rational{}, fmt.Errorf("parse rational %q: %w", s, err)
	}
	d := 1
	if found {
		d, err = strconv.Atoi(den)
		if err != nil {
			return Rational{}, fmt.Errorf("parse rational %q: %w", s, err)
		}
	}
	return Rational{Num: n, Den: d}, nil
}

// Float returns the rational as a float, or 0 when the denominator is 0.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	if r.Den == 1 {
		return strconv.Itoa(r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
