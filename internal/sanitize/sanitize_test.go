package sanitize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/execute"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/translate"
)

func liveSchema() *schema.Description {
	return &schema.Description{
		Dialect: "sqlite",
		Tables: map[string]*schema.Table{
			"customers": {
				Columns: []schema.Column{
					{Name: "customer_id", DeclaredType: "INTEGER", PrimaryKey: true},
					{Name: "full_name", DeclaredType: "TEXT"},
					{Name: "email_address", DeclaredType: "TEXT"},
				},
			},
		},
	}
}

func sampleResult() execute.Result {
	return execute.Result{
		Columns: []string{"customer_id", "full_name"},
		Rows: []map[string]any{
			{"customer_id": int64(1), "full_name": "Ada"},
			{"customer_id": int64(2), "full_name": "Linus"},
		},
		RowCount: 2,
		Duration: 5 * time.Millisecond,
	}
}

// leakCheck asserts no live schema identifier appears anywhere in the
// marshaled response.
func leakCheck(t *testing.T, resp Response, desc *schema.Description) {
	t.Helper()
	payload, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, ident := range desc.Identifiers() {
		assert.NotContains(t, string(payload), ident)
	}
}

func TestSuccess(t *testing.T) {
	t.Run("Restricted hides sql and column names", func(t *testing.T) {
		s := &Sanitizer{Mode: Restricted}
		resp := s.Success("Show me all customers", "SELECT customer_id, full_name FROM customers", sampleResult())

		require.True(t, resp.Success)
		require.Equal(t, 2, resp.Count)
		require.Equal(t, "Found 2 result(s).", resp.Message)
		require.Empty(t, resp.SQL)
		require.Empty(t, resp.Columns)
		require.Empty(t, resp.Rows)
		require.Equal(t, [][]any{{int64(1), "Ada"}, {int64(2), "Linus"}}, resp.Data)

		leakCheck(t, resp, liveSchema())
	})

	t.Run("Restricted empty result", func(t *testing.T) {
		s := &Sanitizer{Mode: Restricted}
		resp := s.Success("anything", "SELECT 1", execute.Result{Columns: []string{"c"}})
		require.True(t, resp.Success)
		require.Zero(t, resp.Count)
		require.Equal(t, "No results found for your query.", resp.Message)
	})

	t.Run("Permissive includes sql, columns and keyed rows", func(t *testing.T) {
		s := &Sanitizer{Mode: Permissive}
		resp := s.Success("Show me all customers", "SELECT customer_id, full_name FROM customers", sampleResult())

		require.True(t, resp.Success)
		require.Equal(t, "SELECT customer_id, full_name FROM customers", resp.SQL)
		require.Equal(t, []string{"customer_id", "full_name"}, resp.Columns)
		require.Len(t, resp.Rows, 2)
		require.Empty(t, resp.Data)
	})
}

func TestExecutionFailure(t *testing.T) {
	failed := execute.Result{Failed: true, EngineError: `no such column: customers.country`}

	t.Run("Restricted yields generic message only", func(t *testing.T) {
		s := &Sanitizer{Mode: Restricted}
		resp := s.ExecutionFailure("Which customers are from France?", "SELECT country FROM customers", failed, liveSchema())

		require.False(t, resp.Success)
		require.NotEmpty(t, resp.Message)
		require.Empty(t, resp.SQL)
		require.Empty(t, resp.Error)
		require.Empty(t, resp.Hint)
		leakCheck(t, resp, liveSchema())
	})

	t.Run("Permissive includes engine error and schema hint", func(t *testing.T) {
		s := &Sanitizer{Mode: Permissive}
		resp := s.ExecutionFailure("Which customers are from France?", "SELECT country FROM customers", failed, liveSchema())

		require.False(t, resp.Success)
		require.Equal(t, "SELECT country FROM customers", resp.SQL)
		require.Contains(t, resp.Error, "no such column")
		require.Contains(t, resp.Hint, "customers")
	})
}

func TestRejected(t *testing.T) {
	outcome := translate.Outcome{
		Statement: "SELECT * FROM customers; DROP TABLE customers",
		Rejection: &translate.Rejection{Reason: translate.ReasonMultipleStatements},
	}

	t.Run("Restricted hides the offending statement", func(t *testing.T) {
		s := &Sanitizer{Mode: Restricted}
		resp := s.Rejected("show customers", outcome)
		require.False(t, resp.Success)
		require.Empty(t, resp.SQL)
		leakCheck(t, resp, liveSchema())
	})

	t.Run("Permissive names the rejection", func(t *testing.T) {
		s := &Sanitizer{Mode: Permissive}
		resp := s.Rejected("show customers", outcome)
		require.False(t, resp.Success)
		require.Contains(t, resp.Error, "multiple_statements")
		require.Equal(t, outcome.Statement, resp.SQL)
	})
}

func TestGenericMessageLocale(t *testing.T) {
	t.Run("Arabic script", func(t *testing.T) {
		require.Equal(t, messageArabic, genericMessage("أرني جميع العملاء"))
	})
	t.Run("Chinese script", func(t *testing.T) {
		require.Equal(t, messageChinese, genericMessage("显示所有客户"))
	})
	t.Run("Spanish markers", func(t *testing.T) {
		require.Equal(t, messageSpanish, genericMessage("Muéstrame todos los clientes"))
	})
	t.Run("French markers", func(t *testing.T) {
		require.Equal(t, messageFrench, genericMessage("Combien de clients avons-nous ?"))
	})
	t.Run("English default", func(t *testing.T) {
		require.Equal(t, messageEnglish, genericMessage("Show me all customers"))
	})
}

func TestParseMode(t *testing.T) {
	t.Run("Defaults to restricted", func(t *testing.T) {
		mode, err := ParseMode("")
		require.NoError(t, err)
		require.Equal(t, Restricted, mode)
	})
	t.Run("Valid modes", func(t *testing.T) {
		for _, raw := range []string{"restricted", "permissive"} {
			mode, err := ParseMode(raw)
			require.NoError(t, err)
			require.EqualValues(t, raw, mode)
		}
	})
	t.Run("Unknown mode", func(t *testing.T) {
		_, err := ParseMode("yolo")
		require.ErrorContains(t, err, "unknown security mode")
	})
}
