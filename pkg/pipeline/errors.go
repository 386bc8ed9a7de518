package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedSource is returned when the source does not have exactly one video stream.
	ErrUnsupportedSource = errors.New("pipeline: unsupported source")

	// ErrPrimingFailure is returned when frame 0 cannot be decoded or written.
	ErrPrimingFailure = errors.New("pipeline: priming failed")

	// ErrDecodeFailure is returned when the decoder fails for a frame.
	ErrDecodeFailure = errors.New("pipeline: decode failed")

	// ErrFrameUnavailable is returned when the decoder succeeds but emits no frame,
	// meaning the source holds fewer frames than its metadata reported.
	ErrFrameUnavailable = errors.New("pipeline: frame not available")

	// ErrSinkFailure is returned when the encoder input can no longer accept frames.
	ErrSinkFailure = errors.New("pipeline: sink failed")

	// ErrDimensionMismatch is returned when two frames of one run differ in size.
	ErrDimensionMismatch = errors.New("pipeline: dimension mismatch")

	// ErrFinalizeFailure is returned when the encoder does not exit cleanly.
	ErrFinalizeFailure = errors.New("pipeline: finalize failed")
)

// FrameError ties a failure to the frame index and the collaborator's own output.
type FrameError struct {
	Index       int
	Op          string // decode, encode, blend
	Diagnostics string
	Err         error
}

func (e *FrameError) Error() string {
	msg := fmt.Sprintf("%s frame %d: %v", e.Op, e.Index, e.Err)
	if d := strings.TrimSpace(e.Diagnostics); d != "" {
		msg += "\n" + d
	}
	return msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}
