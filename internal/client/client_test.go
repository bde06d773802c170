package client

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/scipnet/internal/deepwell"
	"github.com/danmuck/scipnet/internal/protocol"
	"github.com/danmuck/scipnet/internal/server"
	"github.com/danmuck/scipnet/internal/testutil/testlog"
)

func startDaemon(t *testing.T) string {
	t.Helper()
	store, err := deepwell.Open(filepath.Join(t.TempDir(), "deepwell.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Init(); err != nil {
		t.Fatalf("init store: %v", err)
	}
	if err := store.SeedDemo(); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	svc := server.NewService(store, server.ServiceConfig{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("daemon did not stop")
		}
	})
	return ln.Addr().String()
}

func dialDaemon(t *testing.T, addr string) *Client {
	t.Helper()
	cli, err := Dial(context.Background(), Config{Address: addr})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func TestDialValidatesAddress(t *testing.T) {
	testlog.Start(t)
	if _, err := Dial(context.Background(), Config{}); !errors.Is(err, ErrAddressRequired) {
		t.Fatalf("err = %v", err)
	}
}

func TestDialUnreachable(t *testing.T) {
	testlog.Start(t)
	_, err := Dial(context.Background(), Config{
		Address:        "127.0.0.1:1",
		ConnectTimeout: 500 * time.Millisecond,
	})
	if !errors.Is(err, protocol.ErrConnection) {
		t.Fatalf("err = %v, want ErrConnection", err)
	}
}

func TestLoginAndAccess(t *testing.T) {
	testlog.Start(t)
	addr := startDaemon(t)
	cli := dialDaemon(t, addr)

	if err := cli.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	_, field, err := cli.Login(1, "wrong")
	if !errors.Is(err, ErrAuthRejected) {
		t.Fatalf("err = %v, want ErrAuthRejected", err)
	}
	if field != "password" {
		t.Fatalf("field = %q", field)
	}

	user, _, err := cli.Login(1, "InSAne")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user["name"] != "Evren Packard" {
		t.Fatalf("user = %v", user)
	}

	res, err := cli.Access("SCP", 49)
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	if res.Verdict != "granted" || res.File["name"] != "Plague Doctor" {
		t.Fatalf("res = %+v", res)
	}

	res, err = cli.Access("SCP", 173)
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	if res.Verdict != "expunged" {
		t.Fatalf("res = %+v", res)
	}
}

func TestAccessRedacted(t *testing.T) {
	testlog.Start(t)
	addr := startDaemon(t)
	cli := dialDaemon(t, addr)

	if _, _, err := cli.Login(3, "password"); err != nil {
		t.Fatalf("login: %v", err)
	}

	res, err := cli.Access("SCP", 49)
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	if res.Verdict != "redacted" {
		t.Fatalf("res = %+v", res)
	}
	if res.UserClear != "Level 1 - Unrestricted" || res.UserHex != "#009F6B" {
		t.Fatalf("user clearance = %q %q", res.UserClear, res.UserHex)
	}
	if res.NeededClear != "Level 6 - Cosmic Top Secret" || res.NeededHex != "#850005" {
		t.Fatalf("needed clearance = %q %q", res.NeededClear, res.NeededHex)
	}
}

func TestClosedClientRefusesRequests(t *testing.T) {
	testlog.Start(t)
	addr := startDaemon(t)
	cli := dialDaemon(t, addr)

	if err := cli.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := cli.Ping(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("err = %v, want ErrSessionClosed", err)
	}
}
