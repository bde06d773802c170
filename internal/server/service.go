package server

import (
	"context"
	"errors"
	"net"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/danmuck/scipnet/internal/auth"
	"github.com/danmuck/scipnet/internal/deepwell"
	"github.com/danmuck/scipnet/internal/observability"
	"github.com/danmuck/scipnet/internal/protocol"
	logs "github.com/danmuck/smplog"
)

// Terminal daemon endpoint configuration.
type ServiceConfig struct {
	ListenAddr string
}

// Terminal daemon defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ListenAddr: ":9977",
	}
}

// Service owns the accept loop and per-connection terminal sessions.
type Service struct {
	cfg ServiceConfig
	db  Deepwell

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	sessionCount atomic.Int64
}

// NewService wires a terminal daemon over a deepwell record source.
func NewService(db Deepwell, cfg ServiceConfig) *Service {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = DefaultServiceConfig().ListenAddr
	}
	observability.RegisterMetrics()
	return &Service{
		cfg:   cfg,
		db:    db,
		conns: make(map[net.Conn]struct{}),
	}
}

// Run listens on the configured address and blocks until signal shutdown.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	logs.Warnf("server.Service.Run listening addr=%q", ln.Addr().String())
	return s.Serve(ctx, ln)
}

// Serve accepts terminal sessions on an existing listener until ctx ends.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		s.closeAllConns()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.trackConn(conn)
		go s.handleConn(conn)
	}
}

// handleConn drives one terminal session: authenticate, then answer access
// requests until the peer goes away. The connection always closes on return.
func (s *Service) handleConn(conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)
	remote := conn.RemoteAddr().String()
	active := s.sessionCount.Add(1)
	logs.Warnf("server.session connected remote=%q active=%d", remote, active)
	defer func() {
		remaining := s.sessionCount.Add(-1)
		logs.Warnf("server.session disconnected remote=%q active=%d", remote, remaining)
	}()

	user, ok := s.authenticate(conn, remote)
	if !ok {
		observability.RecordSession("unauthenticated")
		return
	}
	observability.RecordSession("authenticated")

	for {
		env, err := s.receive(conn)
		if err != nil {
			return
		}
		switch env.Type {
		case protocol.MsgPing:
			if err := s.send(conn, protocol.MsgPong, map[string]any{}); err != nil {
				return
			}
		case protocol.MsgAccessRequest:
			fType := env.Data["f_type"].(string)
			fID := env.Data["f_id"].(int64)
			resp, verdict, err := Decide(s.db, user, fType, fID)
			if err != nil {
				logs.Errorf(nil, "server.handleConn decide f_type=%q f_id=%d err=%v", fType, fID, err)
				return
			}
			note := strings.ToUpper(strings.TrimSpace(fType))
			if err := s.db.LogAccess(user.ID, remote, verdict == VerdictGranted, note); err != nil {
				logs.Warnf("server.handleConn access log err=%v", err)
			}
			observability.RecordAccess(note, string(verdict))
			logs.Infof(
				"server.handleConn access user_id=%d f_type=%q f_id=%d verdict=%q",
				user.ID, fType, fID, verdict,
			)
			if err := s.sendEnvelope(conn, resp); err != nil {
				return
			}
		default:
			logs.Warnf("server.handleConn unexpected type=%q remote=%q", env.Type, remote)
			return
		}
	}
}

// authenticate runs the credential phase. Failed attempts are answered with
// auth_failed and the peer may retry on the same connection.
func (s *Service) authenticate(conn net.Conn, remote string) (deepwell.User, bool) {
	for {
		env, err := s.receive(conn)
		if err != nil {
			return deepwell.User{}, false
		}
		switch env.Type {
		case protocol.MsgPing:
			if err := s.send(conn, protocol.MsgPong, map[string]any{}); err != nil {
				return deepwell.User{}, false
			}
		case protocol.MsgAuthRequest:
			userID := env.Data["user_id"].(int64)
			password := env.Data["password"].(string)
			user, field, err := auth.Authenticate(s.db, userID, password)
			if errors.Is(err, auth.ErrUnauthorized) {
				observability.RecordAuth("failed")
				if err := s.send(conn, protocol.MsgAuthFailed, map[string]any{"field": field}); err != nil {
					return deepwell.User{}, false
				}
				continue
			}
			if err != nil {
				logs.Errorf(nil, "server.authenticate lookup user_id=%d err=%v", userID, err)
				return deepwell.User{}, false
			}
			observability.RecordAuth("success")
			logs.Infof("server.authenticate user_id=%d name=%q remote=%q", user.ID, user.Name, remote)
			if err := s.send(conn, protocol.MsgAuthSuccess, map[string]any{"user": user.Payload()}); err != nil {
				return deepwell.User{}, false
			}
			return user, true
		default:
			logs.Warnf("server.authenticate unexpected type=%q remote=%q", env.Type, remote)
			return deepwell.User{}, false
		}
	}
}

func (s *Service) receive(conn net.Conn) (protocol.Envelope, error) {
	env, err := protocol.Receive(conn)
	if err != nil {
		logs.Warnf("server.receive err=%v", err)
		return protocol.Envelope{}, err
	}
	observability.RecordMessage("in", string(env.Type))
	return env, nil
}

func (s *Service) send(conn net.Conn, msgType protocol.MessageType, data map[string]any) error {
	if err := protocol.Send(conn, msgType, data); err != nil {
		logs.Warnf("server.send type=%q err=%v", msgType, err)
		return err
	}
	observability.RecordMessage("out", string(msgType))
	return nil
}

func (s *Service) sendEnvelope(conn net.Conn, env protocol.Envelope) error {
	if err := protocol.SendEnvelope(conn, env); err != nil {
		logs.Warnf("server.sendEnvelope type=%q err=%v", env.Type, err)
		return err
	}
	observability.RecordMessage("out", string(env.Type))
	return nil
}

func (s *Service) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Service) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Service) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}
