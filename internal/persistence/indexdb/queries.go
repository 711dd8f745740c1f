package indexdb

import (
	"context"
	"database/sql"
)

type TransitionCount struct {
	Type  string
	Op    string
	Count int
}

// TransitionCounts groups the indexed motion events by generator type and op.
func (s *SQLiteIndex) TransitionCounts(ctx context.Context) ([]TransitionCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type, op, COUNT(*) FROM motion_events GROUP BY type, op ORDER BY type, op`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransitionCount
	for rows.Next() {
		var c TransitionCount
		if err := rows.Scan(&c.Type, &c.Op, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type EventRow struct {
	Tick  uint64
	Op    string
	Type  string
	Depth int
}

// UnitEvents returns the latest motion events of one unit, newest first.
func (s *SQLiteIndex) UnitEvents(ctx context.Context, unit uint64, limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tick, op, type, depth FROM motion_events WHERE unit = ? ORDER BY tick DESC, seq DESC LIMIT ?`,
		int64(unit), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var (
			r    EventRow
			tick int64
		)
		if err := rows.Scan(&tick, &r.Op, &r.Type, &r.Depth); err != nil {
			return nil, err
		}
		r.Tick = uint64(tick)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastTick is the highest indexed tick; ok is false on an empty index.
func (s *SQLiteIndex) LastTick(ctx context.Context) (tick uint64, ok bool, err error) {
	var v sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(tick) FROM ticks`).Scan(&v); err != nil {
		return 0, false, err
	}
	if !v.Valid {
		return 0, false, nil
	}
	return uint64(v.Int64), true, nil
}
