// Package tools wires the question-to-SQL pipeline and exposes it as MCP
// tools.
package tools

import (
	"context"
	"time"

	"github.com/askdb/askdb/internal/execute"
	"github.com/askdb/askdb/internal/logging"
	"github.com/askdb/askdb/internal/metrics"
	"github.com/askdb/askdb/internal/sanitize"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/server"
	"github.com/askdb/askdb/internal/translate"
)

var log = logging.New("tools")

// Pipeline owns one database connection's translate-execute-sanitize
// sequence. Requests run concurrently; the schema cache is the only
// shared mutable state.
type Pipeline struct {
	Cache      *schema.Cache
	Translator *translate.Translator
	Executor   *execute.Executor
	Sanitizer  *sanitize.Sanitizer
}

// QueryDatabase runs the full pipeline for one natural-language question.
// Every internal failure is converted to a sanitized response at its stage
// boundary; nothing untyped reaches the caller.
func (p *Pipeline) QueryDatabase(ctx context.Context, question string) sanitize.Response {
	desc, err := p.Cache.Snapshot(ctx)
	if err != nil {
		log.Printf("schema snapshot unavailable: %v", err)
		return p.Sanitizer.Failure(question, "Schema is unavailable", err)
	}

	started := time.Now()
	outcome, err := p.Translator.Translate(ctx, question, desc)
	if err != nil {
		metrics.ObserveTranslation("provider_error", time.Since(started))
		return p.Sanitizer.Failure(question, "Failed to translate question", err)
	}
	if !outcome.Accepted() {
		metrics.ObserveTranslation("rejected", time.Since(started))
		return p.Sanitizer.Rejected(question, outcome)
	}
	metrics.ObserveTranslation("accepted", time.Since(started))

	result := p.Executor.Execute(ctx, outcome.Statement)
	metrics.ObserveQuery(result.Failed, result.Duration)
	if result.Failed {
		return p.Sanitizer.ExecutionFailure(question, outcome.Statement, result, desc)
	}
	return p.Sanitizer.Success(question, outcome.Statement, result)
}

// QueryIn is the input for the query_database tool.
type QueryIn struct {
	Question string `json:"question" jsonschema:"required,A question about the data in plain language"`
}

// SchemaOut is the output for the get_schema tool.
type SchemaOut struct {
	Success bool                     `json:"success" jsonschema:"Whether schema information is available"`
	Message string                   `json:"message,omitempty" jsonschema:"Reason schema is unavailable"`
	Dialect string                   `json:"dialect,omitempty" jsonschema:"The SQL dialect"`
	Tables  map[string]*schema.Table `json:"tables,omitempty" jsonschema:"Reflected table descriptions"`
}

// GetSchema returns the cached description in permissive mode. Restricted
// mode returns a fixed refusal: schema structure never crosses the trust
// boundary there.
func (p *Pipeline) GetSchema(ctx context.Context) (SchemaOut, error) {
	if p.Sanitizer.Mode != sanitize.Permissive {
		log.Printf("schema access blocked (restricted mode)")
		return SchemaOut{Success: false, Message: "Schema information is not available."}, nil
	}
	desc, err := p.Cache.Snapshot(ctx)
	if err != nil {
		return SchemaOut{}, err
	}
	return SchemaOut{Success: true, Dialect: desc.Dialect, Tables: desc.Tables}, nil
}

// RefreshOut is the output for the refresh_schema tool.
type RefreshOut struct {
	Success    bool   `json:"success" jsonschema:"Whether the refresh completed"`
	Message    string `json:"message" jsonschema:"Human-readable summary"`
	TableCount int    `json:"table_count" jsonschema:"Number of tables found"`
}

// RefreshSchema re-reflects the database and swaps the cached snapshot.
func (p *Pipeline) RefreshSchema(ctx context.Context) (RefreshOut, error) {
	desc, err := p.Cache.Refresh(ctx)
	metrics.ObserveSchemaRefresh(err, tableCount(desc))
	if err != nil {
		return RefreshOut{}, err
	}
	return RefreshOut{
		Success:    true,
		Message:    "Schema refreshed successfully.",
		TableCount: len(desc.Tables),
	}, nil
}

func tableCount(desc *schema.Description) int {
	if desc == nil {
		return 0
	}
	return len(desc.Tables)
}

// ExamplesOut is the output for the get_query_examples tool.
type ExamplesOut struct {
	Examples []schema.Example `json:"examples" jsonschema:"Example questions with their SQL patterns, by category"`
	Note     string           `json:"note" jsonschema:"How to read the examples"`
}

// Register exposes the pipeline as MCP tools.
func Register(p *Pipeline) {
	server.AddTool(func(ctx context.Context, in QueryIn) (sanitize.Response, error) {
		return p.QueryDatabase(ctx, in.Question), nil
	}, server.Tool{
		Name:        "query_database",
		Description: "Converts a natural-language question into a read-only SQL query, executes it against the connected database, and returns the results. Supports filtering, aggregation, joins, sorting and date operations. Only SELECT queries are ever executed; data modification is not possible. Example questions: 'Show me all customers', 'What is the total revenue by product category?', 'List the top 5 customers by order count'.",
	})

	server.AddTool(func(ctx context.Context, in struct{}) (SchemaOut, error) {
		return p.GetSchema(ctx)
	}, server.Tool{
		Name:        "get_schema",
		Description: "Returns the reflected database schema: tables, columns, types, and foreign keys. In restricted security mode this returns a generic message instead of the actual schema.",
	})

	server.AddTool(func(ctx context.Context, in struct{}) (RefreshOut, error) {
		return p.RefreshSchema(ctx)
	}, server.Tool{
		Name:        "refresh_schema",
		Description: "Re-reads the database structure and replaces the cached schema. Use this after adding or removing tables or columns so that query translation sees the current structure.",
	})

	server.AddTool(func(ctx context.Context, in struct{}) (ExamplesOut, error) {
		return ExamplesOut{
			Examples: schema.Examples(),
			Note:     "Adapt these examples to the actual database schema.",
		}, nil
	}, server.Tool{
		Name:        "get_query_examples",
		Description: "Lists example natural-language questions this server understands, organized by category (basic, filtering, aggregation, sorting, joins, dates). Static reference data, always safe to expose.",
	})
}
