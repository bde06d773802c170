// Package frame owns length-prefixed framing over a byte stream: a 4-byte
// big-endian length field followed by the frame body.
package frame

import (
	"encoding/binary"
	"errors"
	"io"
)

const PrefixLen = 4

var (
	ErrShortPrefix   = errors.New("frame: stream closed inside length prefix")
	ErrTruncated     = errors.New("frame: stream closed inside frame body")
	ErrEmptyFrame    = errors.New("frame: zero-length frame")
	ErrFrameTooLarge = errors.New("frame: frame exceeds limit")
)

// Limits constrains frame memory use on both read and write.
type Limits struct {
	MaxFrameBytes uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxFrameBytes: 50 * 1024 * 1024,
	}
}

// ReadFrame reads one complete frame body from r, accumulating across as many
// underlying reads as the stream requires. A stream that ends cleanly before
// any prefix byte returns io.EOF; one that ends mid-frame returns
// ErrShortPrefix or ErrTruncated.
func ReadFrame(r io.Reader, limits Limits) ([]byte, error) {
	var prefix [PrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortPrefix
		}
		return nil, err
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size == 0 {
		return nil, ErrEmptyFrame
	}
	if size > limits.MaxFrameBytes {
		return nil, ErrFrameTooLarge
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return body, nil
}

// WriteFrame writes body as one frame. The prefix and body go out in a single
// write so either the whole frame reaches the stream or an error surfaces.
func WriteFrame(w io.Writer, body []byte, limits Limits) error {
	if len(body) == 0 {
		return ErrEmptyFrame
	}
	if uint64(len(body)) > uint64(limits.MaxFrameBytes) {
		return ErrFrameTooLarge
	}

	buf := make([]byte, PrefixLen+len(body))
	binary.BigEndian.PutUint32(buf[:PrefixLen], uint32(len(body)))
	copy(buf[PrefixLen:], body)
	_, err := w.Write(buf)
	return err
}
