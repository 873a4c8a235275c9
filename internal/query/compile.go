package query

import (
	"database/sql"
	"fmt"
	"strings"
)

// Row is one candidate row returned by a compiled query.
type Row struct {
	TrackIndex int64   `json:"track_index"`
	CutMask    uint64  `json:"cut_mask"`
	PIDMask    uint64  `json:"pid_mask"`
	Selected   bool    `json:"selected"`
	Sign       int     `json:"sign"`
	Pt         float64 `json:"pt"`
	Eta        float64 `json:"eta"`
}

// Compile converts a filter to parameterized SQL over the candidates
// table. Returns (sql, params, error).
//
// Values are NEVER interpolated - always bound through ? placeholders.
// Every query includes ORDER BY track_index ASC for deterministic
// results.
func Compile(f Filter, r *Resolver) (string, []any, error) {
	if err := Validate(f, r); err != nil {
		return "", nil, err
	}

	where := []string{"run_id = ?"}
	params := []any{f.RunID}

	if f.Selected != nil {
		where = append(where, "selected = ?")
		if *f.Selected {
			params = append(params, 1)
		} else {
			params = append(params, 0)
		}
	}
	if f.Sign != nil {
		where = append(where, "sign = ?")
		params = append(params, *f.Sign)
	}
	if f.PtMin != nil {
		where = append(where, "pt >= ?")
		params = append(params, *f.PtMin)
	}
	if f.PtMax != nil {
		where = append(where, "pt <= ?")
		params = append(params, *f.PtMax)
	}
	if f.EtaAbsMax != nil {
		where = append(where, "ABS(eta) <= ?")
		params = append(params, *f.EtaAbsMax)
	}

	// Mask bits are stored as int64 bit patterns; parameters follow suit
	for _, name := range f.CutPassed {
		mask, _ := r.OrdinaryMask(name)
		where = append(where, "(cut_mask & ?) = ?")
		params = append(params, int64(mask), int64(mask))
	}
	for _, name := range f.CutFailed {
		mask, _ := r.OrdinaryMask(name)
		where = append(where, "(cut_mask & ?) = 0")
		params = append(params, int64(mask))
	}
	for _, s := range f.PIDPassed {
		sp, combined, err := ParsePIDSelector(s)
		if err != nil {
			return "", nil, fmt.Errorf("query: %w", err)
		}
		mask, _ := r.PIDMask(sp, combined)
		where = append(where, "(pid_mask & ?) = ?")
		params = append(params, int64(mask), int64(mask))
	}

	sql := "SELECT track_index, cut_mask, pid_mask, selected, sign, pt, eta FROM candidates WHERE " +
		strings.Join(where, " AND ") +
		" ORDER BY track_index ASC"

	if f.Limit != nil {
		sql += " LIMIT ?"
		params = append(params, *f.Limit)
	}

	return sql, params, nil
}

// ScanRows drains the result set of a compiled query.
// Returns an empty slice, not nil, when nothing matched.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	out := []Row{}
	for rows.Next() {
		var (
			r        Row
			cutMask  int64
			pidMask  int64
			selected int
		)
		if err := rows.Scan(&r.TrackIndex, &cutMask, &pidMask, &selected, &r.Sign, &r.Pt, &r.Eta); err != nil {
			return nil, fmt.Errorf("query: scan row: %w", err)
		}
		r.CutMask = uint64(cutMask)
		r.PIDMask = uint64(pidMask)
		r.Selected = selected != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: rows: %w", err)
	}
	return out, nil
}
