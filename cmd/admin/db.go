package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	unit := fs.Uint64("unit", 0, "unit id (unit query)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "ticks"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "motion.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	switch q {
	case "ticks":
		err = queryTicks(db, *limit)
	case "transitions":
		err = queryTransitions(db)
	case "unit":
		if *unit == 0 {
			fmt.Fprintln(os.Stderr, "missing -unit")
			os.Exit(2)
		}
		err = queryUnit(db, *unit, *limit)
	case "catalogs":
		err = queryCatalogs(db)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "supported: ticks, transitions, unit, catalogs")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
}

func queryTicks(db *sql.DB, limit int) error {
	rows, err := db.Query(`SELECT tick, digest, commands, events, informs, assists FROM ticks ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			tick                               int64
			digest                             string
			commands, events, informs, assists int
		)
		if err := rows.Scan(&tick, &digest, &commands, &events, &informs, &assists); err != nil {
			return err
		}
		fmt.Printf("tick=%d digest=%s commands=%d events=%d informs=%d assists=%d\n", tick, shortDigest(digest), commands, events, informs, assists)
	}
	return rows.Err()
}

func queryTransitions(db *sql.DB) error {
	rows, err := db.Query(`SELECT type, op, COUNT(*) FROM motion_events GROUP BY type, op ORDER BY type, op`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			typ, op string
			n       int
		)
		if err := rows.Scan(&typ, &op, &n); err != nil {
			return err
		}
		fmt.Printf("%-20s %-10s %d\n", typ, op, n)
	}
	return rows.Err()
}

func queryUnit(db *sql.DB, unit uint64, limit int) error {
	rows, err := db.Query(`SELECT tick, op, type, depth FROM motion_events WHERE unit = ? ORDER BY tick DESC, seq DESC LIMIT ?`, int64(unit), limit)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			tick, depth int64
			op, typ     string
		)
		if err := rows.Scan(&tick, &op, &typ, &depth); err != nil {
			return err
		}
		fmt.Printf("tick=%d %s %s depth=%d\n", tick, op, typ, depth)
	}
	return rows.Err()
}

func queryCatalogs(db *sql.DB) error {
	rows, err := db.Query(`SELECT name, digest, updated_at FROM catalogs ORDER BY name`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name, digest, updated string
		if err := rows.Scan(&name, &digest, &updated); err != nil {
			return err
		}
		fmt.Printf("%s digest=%s updated_at=%s\n", name, shortDigest(digest), updated)
	}
	return rows.Err()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
