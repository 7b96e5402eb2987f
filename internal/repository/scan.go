package repository

import (
	"database/sql"
	"fmt"
)

// rowScanner is implemented by *sql.Rows and *sql.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// collect scans every row with scan. Iteration errors are database errors,
// scan errors are row mapping errors.
func collect[T any](op string, rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, mappingErr(op, fmt.Errorf("row %d: %w", len(out), err))
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(op, err)
	}
	return out, nil
}
