package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/schema"
)

// fakeCompleter returns a canned response or error.
type fakeCompleter struct {
	response string
	err      error
	prompt   string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func customersSchema() *schema.Description {
	return &schema.Description{
		Dialect: "sqlite",
		Tables: map[string]*schema.Table{
			"customers": {
				Columns: []schema.Column{
					{Name: "id", DeclaredType: "INTEGER", PrimaryKey: true},
					{Name: "name", DeclaredType: "TEXT", Nullable: true},
					{Name: "email", DeclaredType: "TEXT", Nullable: true},
				},
				ApproxRows: 42,
			},
		},
	}
}

func newTranslator(c Completer) *Translator {
	return &Translator{Completer: c, MaxRows: 1000}
}

func TestTranslate(t *testing.T) {
	t.Run("Accepts clean select and appends limit", func(t *testing.T) {
		fake := &fakeCompleter{response: "SELECT * FROM customers"}
		out, err := newTranslator(fake).Translate(t.Context(), "Show me all customers", customersSchema())
		require.NoError(t, err)
		require.True(t, out.Accepted())
		require.Equal(t, "SELECT * FROM customers LIMIT 1000", out.Statement)
	})

	t.Run("Strips markdown fences", func(t *testing.T) {
		fake := &fakeCompleter{response: "```sql\nSELECT name FROM customers LIMIT 10;\n```"}
		out, err := newTranslator(fake).Translate(t.Context(), "names", customersSchema())
		require.NoError(t, err)
		require.True(t, out.Accepted())
		require.Equal(t, "SELECT name FROM customers LIMIT 10", out.Statement)
	})

	t.Run("Trailing comment cannot swallow the limit clause", func(t *testing.T) {
		fake := &fakeCompleter{response: "SELECT * FROM customers -- newest first"}
		out, err := newTranslator(fake).Translate(t.Context(), "newest customers", customersSchema())
		require.NoError(t, err)
		require.True(t, out.Accepted())
		require.Equal(t, "SELECT * FROM customers LIMIT 1000", out.Statement)
	})

	t.Run("Rejects injected drop", func(t *testing.T) {
		fake := &fakeCompleter{response: "SELECT * FROM customers; DROP TABLE customers;"}
		out, err := newTranslator(fake).Translate(t.Context(), "anything", customersSchema())
		require.NoError(t, err)
		require.False(t, out.Accepted())
		require.Contains(t,
			[]RejectReason{ReasonMultipleStatements, ReasonBlockedKeyword},
			out.Rejection.Reason)
	})

	t.Run("Rejects provider decline marker", func(t *testing.T) {
		fake := &fakeCompleter{response: "ERROR: cannot answer without a country column"}
		out, err := newTranslator(fake).Translate(t.Context(), "customers by country", customersSchema())
		require.NoError(t, err)
		require.False(t, out.Accepted())
		require.Equal(t, ReasonEmpty, out.Rejection.Reason)
	})

	t.Run("Provider failure surfaces as error", func(t *testing.T) {
		fake := &fakeCompleter{err: errors.New("connection refused")}
		_, err := newTranslator(fake).Translate(t.Context(), "anything", customersSchema())
		require.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("Deadline maps to timeout error", func(t *testing.T) {
		fake := &fakeCompleter{err: context.DeadlineExceeded}
		_, err := newTranslator(fake).Translate(t.Context(), "anything", customersSchema())
		require.ErrorIs(t, err, ErrProviderTimeout)
	})

	t.Run("Prompt carries schema, rules, examples and question", func(t *testing.T) {
		fake := &fakeCompleter{response: "SELECT 1 LIMIT 1"}
		tr := newTranslator(fake)
		tr.DomainContext = "popularity means rating >= 8.0"
		_, err := tr.Translate(t.Context(), "Show me all customers", customersSchema())
		require.NoError(t, err)

		require.Contains(t, fake.prompt, "SQL SAFETY RULES")
		require.Contains(t, fake.prompt, "TABLE: customers")
		require.Contains(t, fake.prompt, "EXAMPLE QUERY PATTERNS")
		require.Contains(t, fake.prompt, "DOMAIN CONTEXT:\npopularity means rating >= 8.0")
		require.Contains(t, fake.prompt, `"Show me all customers"`)
		// The question goes in verbatim, once, at the end.
		require.Equal(t, 1, strings.Count(fake.prompt, "NATURAL LANGUAGE QUESTION"))
	})
}
