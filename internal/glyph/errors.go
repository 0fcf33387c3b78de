package glyph

import (
	"errors"
	"fmt"
)

// Error kinds for pipeline, codec and playback operations.
var (
	// ErrSource indicates the frame or audio source could not be read or seeked.
	ErrSource = errors.New("glyph: source error")

	// ErrFormat indicates malformed metadata, a bad token stream or a frame
	// count / buffer length mismatch at decode time.
	ErrFormat = errors.New("glyph: format error")

	// ErrEncode indicates the compressor or the video muxer failed.
	ErrEncode = errors.New("glyph: encode error")

	// ErrCanceled indicates the caller stopped an in-flight pass.
	ErrCanceled = errors.New("glyph: canceled")
)

// Error wraps a failure with the operation and, when known, the frame index.
type Error struct {
	Kind  error
	Op    string
	Frame int
	Err   error
}

func (e *Error) Error() string {
	if e.Frame >= 0 {
		return fmt.Sprintf("%s (frame %d): %v", e.Op, e.Frame, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func SourceError(op string, frame int, err error) error {
	return &Error{Kind: ErrSource, Op: op, Frame: frame, Err: err}
}

func EncodeError(op string, err error) error {
	return &Error{Kind: ErrEncode, Op: op, Frame: -1, Err: err}
}

func FormatError(op string, format string, args ...any) error {
	return &Error{Kind: ErrFormat, Op: op, Frame: -1, Err: fmt.Errorf(format, args...)}
}

// FrameFormatError is FormatError bound to a frame index.
func FrameFormatError(op string, frame int, format string, args ...any) error {
	return &Error{Kind: ErrFormat, Op: op, Frame: frame, Err: fmt.Errorf(format, args...)}
}

// CanceledError marks err, usually a context error, as a caller cancellation.
func CanceledError(op string, frame int, err error) error {
	return &Error{Kind: ErrCanceled, Op: op, Frame: frame, Err: err}
}
