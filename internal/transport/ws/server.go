package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"motionstack.dev/internal/protocol"
	"motionstack.dev/internal/sim/movegen"
	"motionstack.dev/internal/sim/world"
)

// Server accepts motion requests over websocket and queues them on the
// world inbox.
type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sid, out := s.handshake(conn)
		if sid == "" {
			return
		}
		if s.log != nil {
			s.log.Printf("control session %s from %s", sid, r.RemoteAddr)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			ack := s.handleRequest(msg)
			if ack == nil {
				continue
			}
			b, err := json.Marshal(ack)
			if err != nil {
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
		}
	}
}

// handleRequest validates one REQUEST and queues its command. Messages of
// other types are ignored.
func (s *Server) handleRequest(msg []byte) *protocol.AckMsg {
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeRequest {
		return nil
	}
	var req protocol.RequestMsg
	if err := json.Unmarshal(msg, &req); err != nil {
		return nack("", protocol.ErrProtoBadRequest, "bad json")
	}
	if req.ProtocolVersion != protocol.Version {
		return nack(req.ID, protocol.ErrProtoBadRequest, "bad protocol_version")
	}
	var cmd world.Command
	if err := json.Unmarshal(req.Command, &cmd); err != nil {
		return nack(req.ID, protocol.ErrBadRequest, "bad command")
	}
	cmd.Request = strings.ToLower(strings.TrimSpace(cmd.Request))
	if !world.KnownRequest(cmd.Request) {
		return nack(req.ID, protocol.ErrUnknownRequest, fmt.Sprintf("unknown request %q", cmd.Request))
	}
	if cmd.Unit == 0 {
		return nack(req.ID, protocol.ErrInvalidUnit, "missing unit")
	}
	select {
	case s.world.Inbox() <- cmd:
	default:
		return nack(req.ID, protocol.ErrWorldBusy, "inbox full")
	}
	return &protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          req.ID,
		Accepted:        true,
		ServerTick:      s.world.CurrentTick(),
	}
}

func nack(id, code, message string) *protocol.AckMsg {
	return &protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          id,
		Code:            code,
		Message:         message,
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)

	sessionID = fmt.Sprintf("C%d", s.nextID.Add(1))
	cfg := s.world.Config()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		WorldID:         cfg.ID,
		TickRateHz:      cfg.TickRateHz,
		ServerTick:      s.world.CurrentTick(),
		Requests:        append([]string(nil), world.Requests...),
		MotionTypes:     movegen.MotionTypeNames(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", nil
	}
	return sessionID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
