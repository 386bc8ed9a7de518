package smartprobe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/longexposure/pkg/adapters/logger"
	"github.com/user/longexposure/pkg/mocks"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAuto, "auto": ModeAuto, "ffprobe": ModeFFprobe, "mp4": ModeMP4} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseMode("gstreamer")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func newProber(mode Mode, isMP4 bool) (*Prober, *mocks.Prober, *mocks.Prober) {
	mp4 := &mocks.Prober{Metadata: mocks.SingleVideoMetadata(4, 4, 10)}
	ff := &mocks.Prober{Metadata: mocks.SingleVideoMetadata(4, 4, 12)}
	p := NewWithBackends(mode, mp4, ff, func(string) bool { return isMP4 }, logger.NewNoop())
	return p, mp4, ff
}

func TestProbe_AutoUsesMP4ForMP4(t *testing.T) {
	p, mp4, ff := newProber(ModeAuto, true)

	meta, err := p.Probe(context.Background(), "in.mp4")
	require.NoError(t, err)
	assert.Equal(t, 10, meta.FrameCount)
	assert.True(t, mp4.Called)
	assert.False(t, ff.Called)
}

func TestProbe_AutoUsesFFprobeForOthers(t *testing.T) {
	p, mp4, ff := newProber(ModeAuto, false)

	meta, err := p.Probe(context.Background(), "in.mkv")
	require.NoError(t, err)
	assert.Equal(t, 12, meta.FrameCount)
	assert.False(t, mp4.Called)
	assert.Equal(t, "in.mkv", ff.Path)
}

func TestProbe_AutoFallsBack(t *testing.T) {
	t.Run("mp4 error", func(t *testing.T) {
		p, mp4, ff := newProber(ModeAuto, true)
		mp4.Err = errors.New("broken moov")

		meta, err := p.Probe(context.Background(), "in.mp4")
		require.NoError(t, err)
		assert.Equal(t, 12, meta.FrameCount)
		assert.True(t, ff.Called)
	})

	t.Run("zero frames", func(t *testing.T) {
		p, mp4, ff := newProber(ModeAuto, true)
		mp4.Metadata.FrameCount = 0

		_, err := p.Probe(context.Background(), "in.mp4")
		require.NoError(t, err)
		assert.True(t, ff.Called)
	})
}

func TestProbe_ForcedModes(t *testing.T) {
	p, mp4, ff := newProber(ModeFFprobe, true)
	_, err := p.Probe(context.Background(), "in.mp4")
	require.NoError(t, err)
	assert.False(t, mp4.Called)
	assert.True(t, ff.Called)

	p, mp4, ff = newProber(ModeMP4, false)
	mp4.Err = errors.New("not mp4")
	_, err = p.Probe(context.Background(), "in.mkv")
	assert.Error(t, err)
	assert.False(t, ff.Called)
}

func TestProbe_UnknownMode(t *testing.T) {
	p, _, _ := newProber(Mode("vlc"), true)
	_, err := p.Probe(context.Background(), "in.mp4")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
