package indexdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"motionstack.dev/internal/sim/catalogs"
	"motionstack.dev/internal/sim/movegen"
)

const (
	pathKindWaypoint = "waypoint"
	pathKindTaxi     = "taxi"
)

func replacePaths(tx *sql.Tx, paths catalogs.PathCatalog) error {
	if _, err := tx.Exec(`DELETE FROM paths`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO paths(kind,id,seq,x,y,z,delay_ms) VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	put := func(kind string, m map[uint32][]catalogs.PathNode) error {
		for _, id := range catalogs.SortedPathIDs(m) {
			for seq, n := range m[id] {
				if _, err := stmt.Exec(kind, int64(id), seq, n.Pos[0], n.Pos[1], n.Pos[2], int64(n.DelayMs)); err != nil {
					return fmt.Errorf("path %s/%d: %w", kind, id, err)
				}
			}
		}
		return nil
	}
	if err := put(pathKindWaypoint, paths.Waypoints); err != nil {
		return err
	}
	return put(pathKindTaxi, paths.Taxi)
}

// PathSet is an in-memory copy of the stored paths. The world loop reads it
// without touching the database.
type PathSet struct {
	waypoints map[uint32][]movegen.PathNode
	taxi      map[uint32][]movegen.PathNode
}

func (p *PathSet) WaypointPath(id uint32) ([]movegen.PathNode, bool) {
	n, ok := p.waypoints[id]
	return n, ok && len(n) > 0
}

func (p *PathSet) TaxiPath(id uint32) ([]movegen.PathNode, bool) {
	n, ok := p.taxi[id]
	return n, ok && len(n) > 0
}

func (p *PathSet) Len() int { return len(p.waypoints) + len(p.taxi) }

// LoadPaths reads every stored path, nodes in sequence order.
func (s *SQLiteIndex) LoadPaths(ctx context.Context) (*PathSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind,id,x,y,z,delay_ms FROM paths ORDER BY kind,id,seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := &PathSet{
		waypoints: map[uint32][]movegen.PathNode{},
		taxi:      map[uint32][]movegen.PathNode{},
	}
	for rows.Next() {
		var (
			kind    string
			id      int64
			x, y, z float64
			delay   int64
		)
		if err := rows.Scan(&kind, &id, &x, &y, &z, &delay); err != nil {
			return nil, err
		}
		node := movegen.PathNode{Pos: mgl32.Vec3{float32(x), float32(y), float32(z)}, DelayMs: uint32(delay)}
		switch kind {
		case pathKindWaypoint:
			set.waypoints[uint32(id)] = append(set.waypoints[uint32(id)], node)
		case pathKindTaxi:
			set.taxi[uint32(id)] = append(set.taxi[uint32(id)], node)
		default:
			return nil, fmt.Errorf("paths: unknown kind %q", kind)
		}
	}
	return set, rows.Err()
}
