package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// QueryResult is the shaped form of a SQL result set: one map per row
// keyed by column name, every value reduced to a JSON-friendly scalar.
type QueryResult struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Truncated bool             `json:"truncated"`
	ElapsedMs int64            `json:"elapsed_ms"`
}

// ToJSON renders the result as indented JSON for tool responses.
func (r *QueryResult) ToJSON() (string, error) {
	formatted, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format result as JSON: %w", err)
	}
	return string(formatted), nil
}

// shapeRows drains rows into a QueryResult, reading at most maxRows rows.
// When the cap is hit, one extra cursor advance decides Truncated without
// materializing another row.
func shapeRows(rows *sql.Rows, maxRows int) (*QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{
		Columns: cols,
		Rows:    make([]map[string]any, 0),
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for len(result.Rows) < maxRows && rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = formatValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if len(result.Rows) == maxRows && rows.Next() {
		result.Truncated = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// formatValue converts a driver value into a JSON-friendly scalar.
// database/sql hands back int64, float64, bool, string, []byte, time.Time,
// or nil for NULL. Text-like byte slices become strings, anything else
// binary becomes a placeholder, and timestamps get a stable layout.
func formatValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
		return fmt.Sprintf("<binary data: %d bytes>", len(val))
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return v
	}
}
