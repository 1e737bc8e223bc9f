package schema

import (
	"fmt"
	"strings"
)

// Format renders a snapshot as compact prompt text. Output is
// deterministic for a given Description: tables are sorted, columns keep
// declaration order. If the text would exceed budget characters, sample
// data is dropped first and trailing tables last; schema completeness is
// worth more to the translator than exhaustive samples. A budget of zero
// means unbounded.
func Format(d *Description, budget int) string {
	full := render(d, len(d.TableNames()), true)
	if budget <= 0 || len(full) <= budget {
		return full
	}

	bare := render(d, len(d.TableNames()), false)
	if len(bare) <= budget {
		return bare
	}

	names := d.TableNames()
	for keep := len(names) - 1; keep > 0; keep-- {
		text := render(d, keep, false)
		if len(text) <= budget {
			return text
		}
	}
	return render(d, 1, false)
}

func render(d *Description, keep int, samples bool) string {
	names := d.TableNames()
	var b strings.Builder

	fmt.Fprintf(&b, "DATABASE TYPE: %s\n", d.Dialect)
	fmt.Fprintf(&b, "TOTAL TABLES: %d\n", len(names))
	b.WriteString(strings.Repeat("=", 80))
	b.WriteString("\n")

	for i, name := range names {
		if i >= keep {
			fmt.Fprintf(&b, "\n(%d more tables omitted for brevity)\n", len(names)-keep)
			break
		}
		table := d.Tables[name]

		fmt.Fprintf(&b, "\nTABLE: %s\n", name)
		if table.ApproxRows == RowCountUnknown {
			b.WriteString("Rows: unknown\n")
		} else {
			fmt.Fprintf(&b, "Rows: ~%d\n", table.ApproxRows)
		}
		b.WriteString("COLUMNS:\n")
		for _, col := range table.Columns {
			pk, nullable := "", ""
			if col.PrimaryKey {
				pk = " [PRIMARY KEY]"
			}
			if !col.Nullable {
				nullable = " [NOT NULL]"
			}
			fmt.Fprintf(&b, "  - %s: %s%s%s\n", col.Name, col.DeclaredType, pk, nullable)
		}

		if len(table.ForeignKeys) > 0 {
			b.WriteString("FOREIGN KEYS:\n")
			for _, fk := range table.ForeignKeys {
				fmt.Fprintf(&b, "  - %s -> %s(%s)\n", fk.LocalColumn, fk.ReferencedTable, fk.ReferencedColumn)
			}
		}

		if samples && len(table.SampleRows) > 0 {
			b.WriteString("SAMPLE DATA:\n")
			for i, row := range table.SampleRows {
				parts := make([]string, 0, len(table.Columns))
				for _, col := range table.Columns {
					if v, ok := row[col.Name]; ok {
						parts = append(parts, fmt.Sprintf("%s=%s", col.Name, v))
					}
				}
				fmt.Fprintf(&b, "  Row %d: %s\n", i+1, strings.Join(parts, ", "))
			}
		}
	}

	return b.String()
}

// Example pairs a natural-language question with its SQL pattern. The
// corpus doubles as prompt few-shots and as user-facing reference data.
type Example struct {
	Category        string `json:"category"`
	NaturalLanguage string `json:"natural_language"`
	SQL             string `json:"sql"`
}

// Examples returns the static example-query corpus in a fixed order.
func Examples() []Example {
	return []Example{
		{"basic", "Show me all customers", "SELECT * FROM customers LIMIT 100"},
		{"basic", "List all products", "SELECT * FROM products LIMIT 100"},
		{"filtering", "List products in Electronics category", "SELECT * FROM products WHERE category = 'Electronics'"},
		{"filtering", "Show me customers from USA", "SELECT * FROM customers WHERE country = 'USA'"},
		{"aggregation", "What is the total number of orders?", "SELECT COUNT(*) AS total_orders FROM orders"},
		{"aggregation", "What is the average order value?", "SELECT AVG(total_amount) AS avg_order_value FROM orders"},
		{"aggregation", "What are total sales by category?", "SELECT category, SUM(price * quantity) AS total_sales FROM products GROUP BY category"},
		{"sorting_and_top", "Show me top 5 most expensive products", "SELECT * FROM products ORDER BY price DESC LIMIT 5"},
		{"sorting_and_top", "List employees by department with salaries", "SELECT department, name, salary FROM employees ORDER BY department, salary DESC"},
		{"joins", "Show me orders with customer names", "SELECT o.*, c.name FROM orders o JOIN customers c ON o.customer_id = c.id"},
		{"joins", "What products have never been ordered?", "SELECT p.* FROM products p LEFT JOIN order_items oi ON p.id = oi.product_id WHERE oi.id IS NULL"},
		{"complex", "What are the products with the highest sales?", "SELECT p.name, SUM(oi.quantity * oi.price) AS total_sales FROM products p JOIN order_items oi ON p.id = oi.product_id GROUP BY p.name ORDER BY total_sales DESC LIMIT 10"},
		{"complex", "Show me customers who haven't placed any orders", "SELECT c.* FROM customers c LEFT JOIN orders o ON c.id = o.customer_id WHERE o.id IS NULL"},
		{"dates", "Show me customers who placed orders in last 30 days", "SELECT DISTINCT c.* FROM customers c JOIN orders o ON c.id = o.customer_id WHERE o.order_date >= DATE('now', '-30 days')"},
	}
}

// FormatExamples renders the example corpus as a prompt section.
func FormatExamples() string {
	var b strings.Builder
	b.WriteString("EXAMPLE QUERY PATTERNS:\n")
	b.WriteString(strings.Repeat("=", 80))
	for i, ex := range Examples() {
		fmt.Fprintf(&b, "\n%d. Natural Language: %q\n   SQL: %s", i+1, ex.NaturalLanguage, ex.SQL)
	}
	return b.String()
}

// SafetyRules returns the prompt contract the completion provider is held
// to. The validator enforces the same rules on whatever comes back.
func SafetyRules(maxRows int) string {
	return fmt.Sprintf(`SQL SAFETY RULES:
=================
1. ONLY generate SELECT queries (read-only)
2. NEVER use DROP, DELETE, UPDATE, INSERT, ALTER, TRUNCATE, CREATE
3. Always include a LIMIT clause (max %d rows)
4. Use table aliases for clarity in JOINs
5. Handle NULL values appropriately
6. Use proper date functions for the database type
7. Only reference columns and tables that exist in the schema
8. Return ONLY the SQL query, no explanations or markdown
9. If the question is unsafe or impossible, return: ERROR: [reason]`, maxRows)
}
