package main

import (
	"math/rand"
	"testing"

	"motionstack.dev/internal/sim/world"
)

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" 1, 10,,12")
	if err != nil || len(ids) != 3 || ids[1] != 10 {
		t.Fatalf("ids=%v err=%v", ids, err)
	}
	if _, err := parseIDs("1,x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRandomCommandIsKnown(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		cmd := randomCommand(r, []uint64{4, 5})
		if !world.KnownRequest(cmd.Request) {
			t.Fatalf("unknown request %q", cmd.Request)
		}
		if cmd.Unit != 4 && cmd.Unit != 5 {
			t.Fatalf("unit %d", cmd.Unit)
		}
		if cmd.Request == "rotate" && (cmd.Ms == 0 || cmd.Dir == "") {
			t.Fatalf("rotate without time or dir: %+v", cmd)
		}
	}
}
