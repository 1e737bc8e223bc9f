// Package sanitize is the single trust boundary between pipeline results
// and the untrusted caller. Restricted and permissive modes render through
// totally separate branches so the boundary stays auditable in one place.
package sanitize

import (
	"fmt"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/execute"
	"github.com/askdb/askdb/internal/logging"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/translate"
)

var audit = logging.New("audit")

// Mode selects how much internal structure responses may reveal.
type Mode string

const (
	// Restricted withholds SQL text, engine errors and all schema names.
	Restricted Mode = "restricted"
	// Permissive includes them verbatim, for trusted development use only.
	Permissive Mode = "permissive"
)

// ParseMode validates a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Restricted, Permissive:
		return Mode(s), nil
	case "":
		return Restricted, nil
	default:
		return "", fmt.Errorf("unknown security mode %q (valid: restricted, permissive)", s)
	}
}

// Response is the only value that crosses the trust boundary.
//
// Restricted successes carry positional row values so that no column name
// from the live schema appears anywhere in the payload; permissive
// responses add the statement, the column list and keyed rows.
type Response struct {
	Success bool     `json:"success" jsonschema:"Whether the query succeeded"`
	Message string   `json:"message,omitempty" jsonschema:"Human-readable result or failure message"`
	Data    [][]any  `json:"data,omitempty" jsonschema:"Result rows as positional value lists"`
	Count   int      `json:"count" jsonschema:"Number of rows returned"`
	SQL     string   `json:"sql,omitempty" jsonschema:"The executed SQL statement (permissive mode only)"`
	Columns []string `json:"columns,omitempty" jsonschema:"Result column names (permissive mode only)"`
	Error   string   `json:"error,omitempty" jsonschema:"Raw engine or pipeline error (permissive mode only)"`
	Hint    string   `json:"hint,omitempty" jsonschema:"Schema hint for debugging (permissive mode only)"`

	Rows []map[string]any `json:"rows,omitempty" jsonschema:"Result rows keyed by column (permissive mode only)"`
}

// Sanitizer renders pipeline outcomes for one configured mode.
type Sanitizer struct {
	Mode Mode
}

// Success presents query rows. The full record lands in the server log in
// both modes; only permissive mode surfaces the SQL and column names.
func (s *Sanitizer) Success(question, sql string, res execute.Result) Response {
	s.logRecord(record{Question: question, SQL: sql, Rows: res.RowCount, Duration: res.Duration})

	if s.Mode == Permissive {
		return Response{
			Success: true,
			Message: countMessage(res.RowCount),
			SQL:     sql,
			Columns: res.Columns,
			Rows:    res.Rows,
			Count:   res.RowCount,
		}
	}

	data := make([][]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		values := make([]any, len(res.Columns))
		for i, col := range res.Columns {
			values[i] = row[col]
		}
		data = append(data, values)
	}
	return Response{
		Success: true,
		Message: countMessage(res.RowCount),
		Data:    data,
		Count:   res.RowCount,
	}
}

// ExecutionFailure presents an engine-level failure. Restricted mode gets
// a locale-selected generic message and nothing else.
func (s *Sanitizer) ExecutionFailure(question, sql string, res execute.Result, desc *schema.Description) Response {
	s.logRecord(record{Question: question, SQL: sql, EngineError: res.EngineError, Duration: res.Duration})

	if s.Mode == Permissive {
		return Response{
			Success: false,
			Message: "Query execution failed",
			SQL:     sql,
			Error:   res.EngineError,
			Hint:    tablesHint(desc),
		}
	}
	return Response{Success: false, Message: genericMessage(question)}
}

// Rejected presents a statement that failed the safety contract. The
// offending statement is logged, never executed and never surfaced in
// restricted mode.
func (s *Sanitizer) Rejected(question string, out translate.Outcome) Response {
	s.logRecord(record{Question: question, SQL: out.Statement, RejectReason: out.Rejection.String()})

	if s.Mode == Permissive {
		return Response{
			Success: false,
			Message: "Generated query failed safety validation",
			SQL:     out.Statement,
			Error:   out.Rejection.String(),
		}
	}
	return Response{Success: false, Message: genericMessage(question)}
}

// Failure presents a pre-execution pipeline failure: provider unreachable
// or timed out, or the schema snapshot unavailable. The message names the
// stage; only permissive mode sees it and the underlying error.
func (s *Sanitizer) Failure(question, message string, err error) Response {
	s.logRecord(record{Question: question, EngineError: err.Error()})

	if s.Mode == Permissive {
		return Response{
			Success: false,
			Message: message,
			Error:   err.Error(),
		}
	}
	return Response{Success: false, Message: genericMessage(question)}
}

func countMessage(n int) string {
	if n == 0 {
		return "No results found for your query."
	}
	return fmt.Sprintf("Found %d result(s).", n)
}

func tablesHint(desc *schema.Description) string {
	if desc == nil {
		return ""
	}
	return "available tables: " + strings.Join(desc.TableNames(), ", ")
}

// record is the full server-side diagnostic entry, written unconditionally
// regardless of mode. In restricted mode this is the only place the SQL
// and engine error persist.
type record struct {
	Question     string
	SQL          string
	EngineError  string
	RejectReason string
	Rows         int
	Duration     time.Duration
}

func (s *Sanitizer) logRecord(r record) {
	audit.Printf("mode=%s question=%q sql=%q rows=%d duration=%s reject=%q error=%q",
		s.Mode, r.Question, r.SQL, r.Rows, r.Duration, r.RejectReason, r.EngineError)
}
