package protocol

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/danmuck/scipnet/internal/protocol/frame"
	logs "github.com/danmuck/smplog"
)

// Transport calls are blocking and synchronous: one full send or receive
// completes before the next begins on a connection. The layer never owns or
// retains the connection and imposes no deadlines; callers force an I/O
// failure by closing the conn, which surfaces as ErrConnection.

// Send builds an envelope from (msgType, data), encodes it, and writes one
// complete frame to conn. Validation happens strictly before any byte
// touches the wire; a validation failure returns without transmitting.
func Send(conn net.Conn, msgType any, data map[string]any) error {
	env, err := Build(msgType, data)
	if err != nil {
		return err
	}
	return SendEnvelope(conn, env)
}

// SendEnvelope writes an already-built envelope to conn as one frame.
func SendEnvelope(conn net.Conn, env Envelope) error {
	b, err := Encode(env)
	if err != nil {
		return err
	}
	if err := frame.WriteFrame(conn, b, frame.DefaultLimits()); err != nil {
		logs.Errorf(nil, "protocol.Send write failed message_type=%s err=%v", env.Type, err)
		return fmt.Errorf("%w: write frame: %w", ErrConnection, err)
	}
	logs.Debugf("protocol.Send ok message_type=%s bytes=%d", env.Type, len(b))
	return nil
}

// Receive reads one complete frame from conn, decodes it, and re-validates
// the payload before returning. Premature closure and I/O failures surface
// as ErrConnection; a complete but malformed frame is a DecodeError.
func Receive(conn net.Conn) (Envelope, error) {
	body, err := frame.ReadFrame(conn, frame.DefaultLimits())
	if err != nil {
		if errors.Is(err, frame.ErrFrameTooLarge) || errors.Is(err, frame.ErrEmptyFrame) {
			return Envelope{}, &DecodeError{Reason: "frame rejected", Err: err}
		}
		if errors.Is(err, io.EOF) {
			return Envelope{}, fmt.Errorf("%w: connection closed: %w", ErrConnection, err)
		}
		return Envelope{}, fmt.Errorf("%w: read frame: %w", ErrConnection, err)
	}

	env, err := Decode(body)
	if err != nil {
		logs.Errorf(nil, "protocol.Receive decode failed err=%v", err)
		return Envelope{}, err
	}
	logs.Debugf("protocol.Receive ok message_type=%s bytes=%d", env.Type, len(body))
	return env, nil
}
