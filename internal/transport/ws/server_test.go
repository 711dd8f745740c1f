package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"motionstack.dev/internal/protocol"
	"motionstack.dev/internal/sim/catalogs"
	"motionstack.dev/internal/sim/movegen"
	"motionstack.dev/internal/sim/tuning"
	"motionstack.dev/internal/sim/world"
)

func newWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(world.WorldConfig{ID: "ctl", TickRateHz: 50}, world.Options{
		Tuning:   tuning.Defaults(),
		Catalogs: &catalogs.Catalogs{},
		Logger:   log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if _, err := w.Spawn(world.SpawnSpec{ID: 1, Kind: movegen.KindPlayer}); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	return w
}

func request(id, command string) []byte {
	return []byte(`{"type":"REQUEST","protocol_version":"` + protocol.Version + `","id":"` + id + `","command":` + command + `}`)
}

func TestHandleRequest(t *testing.T) {
	s := NewServer(newWorld(t), nil)

	cases := []struct {
		name string
		msg  []byte
		code string
	}{
		{"accepted", request("r1", `{"unit":1,"request":"ROTATE","ms":500,"dir":"left"}`), ""},
		{"unknown request", request("r2", `{"unit":1,"request":"teleport"}`), protocol.ErrUnknownRequest},
		{"missing unit", request("r3", `{"request":"idle"}`), protocol.ErrInvalidUnit},
		{"bad command", request("r4", `"idle"`), protocol.ErrBadRequest},
		{"bad version", []byte(`{"type":"REQUEST","protocol_version":"9","id":"r5","command":{}}`), protocol.ErrProtoBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ack := s.handleRequest(tc.msg)
			if ack == nil {
				t.Fatalf("no ack")
			}
			if ack.Code != tc.code || ack.Accepted != (tc.code == "") {
				t.Fatalf("ack=%+v", ack)
			}
			if !protocol.IsKnownCode(ack.Code) {
				t.Fatalf("unknown code %q", ack.Code)
			}
		})
	}

	if ack := s.handleRequest([]byte(`{"type":"HELLO"}`)); ack != nil {
		t.Fatalf("non-request acked: %+v", ack)
	}
}

type chanSink chan world.TickLogEntry

func (c chanSink) WriteTick(e world.TickLogEntry) error {
	if len(e.Commands) > 0 {
		select {
		case c <- e:
		default:
		}
	}
	return nil
}

func TestHandler_QueuesRequests(t *testing.T) {
	w := newWorld(t)
	sink := make(chanSink, 4)
	w.AddTickSink(sink)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	srv := httptest.NewServer(NewServer(w, nil).Handler())
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	hello := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "t"}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("hello: %v", err)
	}
	var welcome protocol.WelcomeMsg
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if welcome.Type != protocol.TypeWelcome || welcome.WorldID != "ctl" || welcome.SessionID == "" {
		t.Fatalf("welcome=%+v", welcome)
	}
	if len(welcome.Requests) != len(world.Requests) {
		t.Fatalf("requests=%v", welcome.Requests)
	}

	if err := conn.WriteMessage(websocket.TextMessage, request("q1", `{"unit":1,"request":"rotate","ms":1000,"dir":"right"}`)); err != nil {
		t.Fatalf("request: %v", err)
	}
	var ack protocol.AckMsg
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if !ack.Accepted || ack.AckFor != "q1" {
		t.Fatalf("ack=%+v", ack)
	}

	select {
	case e := <-sink:
		if e.Commands[0].Request != "rotate" || e.Commands[0].Unit != 1 {
			t.Fatalf("commands=%+v", e.Commands)
		}
		var pushed bool
		for _, ev := range e.Events {
			if ev.Name == "ROTATE" {
				pushed = true
			}
		}
		if !pushed {
			b, _ := json.Marshal(e.Events)
			t.Fatalf("no rotate event: %s", b)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("command never applied")
	}
}

func TestHandler_RejectsMissingHello(t *testing.T) {
	srv := httptest.NewServer(NewServer(newWorld(t), nil).Handler())
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteMessage(websocket.TextMessage, request("x", `{}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("err=%v", err)
	}
}
