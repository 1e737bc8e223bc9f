// Package execute runs validated SQL statements with a wall-clock timeout
// and a hard row cap, degrading every engine failure to a structured result.
package execute

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/askdb/askdb/internal/logging"
)

var log = logging.New("execute")

// Result is the outcome of one statement. Failed results carry the raw
// engine message; the sanitizer decides who gets to see it.
type Result struct {
	Columns     []string
	Rows        []map[string]any
	RowCount    int
	Truncated   bool // row cap hit while scanning
	Duration    time.Duration
	Failed      bool
	EngineError string
}

// Executor runs fully-materialized statement text. No parameter binding
// happens at this layer: the translation step already embeds literal
// values.
type Executor struct {
	DB      *gorm.DB
	MaxRows int
	Timeout time.Duration
}

// Execute runs the statement, scanning at most MaxRows rows. The cached
// schema can lag behind concurrent DDL, so any engine-level error (missing
// table, type mismatch, permission) comes back as a failed Result rather
// than a fault.
func (e *Executor) Execute(ctx context.Context, stmt string) (result Result) {
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			log.Printf("driver panic recovered: %v", r)
			result = Result{
				Failed:      true,
				EngineError: fmt.Sprintf("driver panic: %v", r),
				Duration:    time.Since(start),
			}
		}
	}()

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	rows, err := e.DB.WithContext(ctx).Raw(stmt).Rows()
	if err != nil {
		return failed(ctx, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return failed(ctx, err)
	}

	result.Columns = columns
	for rows.Next() {
		if e.MaxRows > 0 && result.RowCount >= e.MaxRows {
			result.Truncated = true
			break
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return failed(ctx, err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
		result.RowCount++
	}
	if err := rows.Err(); err != nil {
		return failed(ctx, err)
	}
	return result
}

func failed(ctx context.Context, err error) Result {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Result{Failed: true, EngineError: "statement timed out"}
	}
	return Result{Failed: true, EngineError: err.Error()}
}

// normalizeValue makes driver values JSON-friendly. Byte slices become
// UTF-8 strings when valid, quoted escapes otherwise.
func normalizeValue(v any) any {
	switch value := v.(type) {
	case []byte:
		if utf8.Valid(value) {
			return string(value)
		}
		return fmt.Sprintf("%q", value)
	case time.Time:
		return value.Format(time.RFC3339)
	default:
		return v
	}
}
