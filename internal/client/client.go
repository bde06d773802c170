// Package client speaks the terminal protocol from the operator side: dial,
// authenticate, and request files over one long-lived connection.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/scipnet/internal/protocol"
	logs "github.com/danmuck/smplog"
)

var (
	ErrAddressRequired = errors.New("client: server address required")
	ErrAuthRejected    = errors.New("client: authentication rejected")
	ErrUnexpectedReply = errors.New("client: unexpected reply")
	ErrSessionClosed   = errors.New("client: session closed")
)

type Config struct {
	Address        string
	ConnectTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 5 * time.Second,
	}
}

// Client is one terminal connection. Requests are serialized: the protocol is
// strictly request/response per connection.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial connects to the terminal daemon. The caller owns the returned client
// and must Close it.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConfig().ConnectTimeout
	}
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", protocol.ErrConnection, cfg.Address, err)
	}
	logs.Infof("client.Dial connected addr=%q", cfg.Address)
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Login authenticates the session. On rejection the returned field names the
// offending credential ("user_id" or "password") and the error wraps
// ErrAuthRejected; on success the server's view of the user record comes back.
func (c *Client) Login(userID int64, password string) (map[string]any, string, error) {
	env, err := c.roundTrip(protocol.MsgAuthRequest, map[string]any{
		"user_id":  userID,
		"password": password,
	})
	if err != nil {
		return nil, "", err
	}
	switch env.Type {
	case protocol.MsgAuthSuccess:
		user, _ := env.Data["user"].(map[string]any)
		return user, "", nil
	case protocol.MsgAuthFailed:
		field, _ := env.Data["field"].(string)
		return nil, field, fmt.Errorf("%w: field=%q", ErrAuthRejected, field)
	default:
		return nil, "", fmt.Errorf("%w: %s to auth_request", ErrUnexpectedReply, env.Type)
	}
}

// AccessResult is one resolved file request.
type AccessResult struct {
	Verdict string

	// Granted.
	File map[string]any

	// Redacted.
	UserClear   string
	UserHex     string
	NeededClear string
	NeededHex   string
}

// Access requests one file by type and number. All three verdicts are normal
// outcomes, not errors.
func (c *Client) Access(fType string, fID int64) (AccessResult, error) {
	env, err := c.roundTrip(protocol.MsgAccessRequest, map[string]any{
		"f_type": fType,
		"f_id":   fID,
	})
	if err != nil {
		return AccessResult{}, err
	}
	switch env.Type {
	case protocol.MsgAccessGranted:
		file, _ := env.Data["file"].(map[string]any)
		return AccessResult{Verdict: "granted", File: file}, nil
	case protocol.MsgAccessRedacted:
		userClear, _ := env.Data["user_clear"].(string)
		userHex, _ := env.Data["user_hex"].(string)
		neededClear, _ := env.Data["needed_clear"].(string)
		neededHex, _ := env.Data["needed_hex"].(string)
		return AccessResult{
			Verdict:     "redacted",
			UserClear:   userClear,
			UserHex:     userHex,
			NeededClear: neededClear,
			NeededHex:   neededHex,
		}, nil
	case protocol.MsgAccessExpunged:
		return AccessResult{Verdict: "expunged"}, nil
	default:
		return AccessResult{}, fmt.Errorf("%w: %s to access_request", ErrUnexpectedReply, env.Type)
	}
}

// Ping checks connection liveness.
func (c *Client) Ping() error {
	env, err := c.roundTrip(protocol.MsgPing, map[string]any{})
	if err != nil {
		return err
	}
	if env.Type != protocol.MsgPong {
		return fmt.Errorf("%w: %s to ping", ErrUnexpectedReply, env.Type)
	}
	return nil
}

func (c *Client) roundTrip(msgType protocol.MessageType, data map[string]any) (protocol.Envelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return protocol.Envelope{}, ErrSessionClosed
	}
	if err := protocol.Send(c.conn, msgType, data); err != nil {
		return protocol.Envelope{}, err
	}
	env, err := protocol.Receive(c.conn)
	if err != nil {
		logs.Warnf("client.roundTrip type=%q err=%v", msgType, err)
		return protocol.Envelope{}, err
	}
	return env, nil
}
