package protocol

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/scipnet/internal/testutil/testlog"
)

func TestSendReceiveOverPipe(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		done <- Send(client, MsgAccessRequest, map[string]any{
			"f_type": "SCP",
			"f_id":   int64(173),
		})
	}()

	env, err := Receive(server)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("send: %v", err)
	}
	if env.Type != MsgAccessRequest {
		t.Fatalf("unexpected type %s", env.Type)
	}
	if got := env.Data["f_id"].(int64); got != 173 {
		t.Fatalf("unexpected f_id %d", got)
	}
	if got := env.Data["f_type"].(string); got != "SCP" {
		t.Fatalf("unexpected f_type %q", got)
	}
}

func TestSendValidatesBeforeWire(t *testing.T) {
	testlog.Start(t)
	// net.Pipe writes block until read: Send returning at all proves no
	// byte touched the wire for an invalid payload.
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	err := Send(client, MsgAuthRequest, map[string]any{"user_id": int64(1)})
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldError, got %v", err)
	}
}

func TestReceiveTruncatedFrameFailsFast(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer server.Close()

	go func() {
		// length prefix promising a body that never arrives
		var prefix [4]byte
		binary.BigEndian.PutUint32(prefix[:], 64)
		_, _ = client.Write(prefix[:])
		_ = client.Close()
	}()

	errCh := make(chan error, 1)
	go func() {
		_, err := Receive(server)
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrConnection) {
			t.Fatalf("expected ErrConnection, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("receive hung on truncated frame")
	}
}

func TestReceivePeerClosedBeforeFrame(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer server.Close()
	_ = client.Close()

	_, err := Receive(server)
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestReceiveMalformedFrameIsDecodeError(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer server.Close()

	go func() {
		body := []byte("this is not an envelope")
		var prefix [4]byte
		binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
		_, _ = client.Write(append(prefix[:], body...))
		_ = client.Close()
	}()

	_, err := Receive(server)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestConnectionIsolation(t *testing.T) {
	testlog.Start(t)
	// two independent connections driven concurrently must never
	// cross-deliver envelopes.
	clientA, serverA := net.Pipe()
	clientB, serverB := net.Pipe()
	defer clientA.Close()
	defer serverA.Close()
	defer clientB.Close()
	defer serverB.Close()

	sendDone := make(chan error, 2)
	go func() {
		sendDone <- Send(clientA, MsgAccessRequest, map[string]any{"f_type": "SCP", "f_id": int64(1)})
	}()
	go func() {
		sendDone <- Send(clientB, MsgAccessRequest, map[string]any{"f_type": "SITE", "f_id": int64(2)})
	}()

	type result struct {
		env Envelope
		err error
	}
	recvA := make(chan result, 1)
	recvB := make(chan result, 1)
	go func() {
		env, err := Receive(serverA)
		recvA <- result{env, err}
	}()
	go func() {
		env, err := Receive(serverB)
		recvB <- result{env, err}
	}()

	a := <-recvA
	b := <-recvB
	for i := 0; i < 2; i++ {
		if err := <-sendDone; err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	if a.err != nil || b.err != nil {
		t.Fatalf("receive: %v / %v", a.err, b.err)
	}
	if a.env.Data["f_type"] != "SCP" || a.env.Data["f_id"].(int64) != 1 {
		t.Fatalf("connection A received foreign envelope: %#v", a.env.Data)
	}
	if b.env.Data["f_type"] != "SITE" || b.env.Data["f_id"].(int64) != 2 {
		t.Fatalf("connection B received foreign envelope: %#v", b.env.Data)
	}
}
