package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	persistlog "motionstack.dev/internal/persistence/log"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "rejects":
			rejectsCmd(os.Args[2:])
			return
		case "state":
			getCmd("state", "/admin/v1/state", os.Args[2:])
			return
		case "transitions":
			getCmd("transitions", "/admin/v1/transitions", os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

// rejectsCmd prints the rejected motion requests of a world, optionally
// for one unit only.
func rejectsCmd(args []string) {
	fs := flag.NewFlagSet("rejects", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	unit := fs.Uint64("unit", 0, "unit filter (optional)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	dir := filepath.Join(*dataDir, "worlds", *worldID, "rejects")
	files, err := persistlog.Files(dir, "rejects")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	n := 0
	for _, p := range files {
		err := persistlog.ReadLines(p, func(line []byte) error {
			var e persistlog.RejectEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return err
			}
			if *unit != 0 && e.Unit != *unit {
				return nil
			}
			n++
			fmt.Printf("tick=%d unit=%d type=%s\n", e.Tick, e.Unit, e.Type)
			return nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("rejects=%d\n", n)
}
