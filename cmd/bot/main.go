package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"motionstack.dev/internal/protocol"
	"motionstack.dev/internal/sim/world"
)

// pokes are the requests sent in random mode. None of them needs a target.
var pokes = []string{"random", "confused", "distract", "rotate", "targeted_home", "idle"}

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "client name")
		units    = flag.String("units", "", "comma separated unit ids to poke")
		interval = flag.Duration("interval", 2*time.Second, "delay between random requests")
		seed     = flag.Int64("seed", 0, "random seed (default: time based)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	ids, err := parseIDs(*units)
	if err != nil || len(ids) == 0 {
		logger.Fatalf("bad -units %q", *units)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(*seed))

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		MaxQueue:        8,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	// Reader: log WELCOME and failed ACKs.
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeWelcome:
				var w protocol.WelcomeMsg
				if err := json.Unmarshal(msg, &w); err != nil {
					continue
				}
				logger.Printf("WELCOME session=%s world=%s tick_rate=%d tick=%d", w.SessionID, w.WorldID, w.TickRateHz, w.ServerTick)
			case protocol.TypeAck:
				var ack protocol.AckMsg
				if err := json.Unmarshal(msg, &ack); err != nil {
					continue
				}
				if !ack.Accepted {
					logger.Printf("ACK %s rejected: %s %s", ack.AckFor, ack.Code, ack.Message)
				}
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		cmd := randomCommand(r, ids)
		b, _ := json.Marshal(cmd)
		req := protocol.RequestMsg{
			Type:            protocol.TypeRequest,
			ProtocolVersion: protocol.Version,
			ID:              fmt.Sprintf("R%d", n),
			Command:         b,
		}
		if err := conn.WriteJSON(req); err != nil {
			logger.Printf("send: %v", err)
			return
		}
		logger.Printf("%s unit=%d %s", req.ID, cmd.Unit, cmd.Request)
	}
}

func randomCommand(r *rand.Rand, ids []uint64) world.Command {
	cmd := world.Command{
		Unit:    ids[r.Intn(len(ids))],
		Request: pokes[r.Intn(len(pokes))],
	}
	switch cmd.Request {
	case "distract":
		cmd.Ms = uint32(500 + r.Intn(2500))
	case "rotate":
		cmd.Ms = uint32(1000 + r.Intn(3000))
		if r.Intn(2) == 0 {
			cmd.Dir = "left"
		} else {
			cmd.Dir = "right"
		}
	}
	return cmd
}

func parseIDs(s string) ([]uint64, error) {
	var out []uint64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
