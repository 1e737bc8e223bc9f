package translate

import (
	"fmt"
	"strings"
)

// RejectReason is the closed set of safety-validation failures.
type RejectReason string

const (
	ReasonNotReadOnly        RejectReason = "not_read_only"
	ReasonBlockedKeyword     RejectReason = "blocked_keyword"
	ReasonMultipleStatements RejectReason = "multiple_statements"
	ReasonEmpty              RejectReason = "empty"
)

// Rejection explains why a generated statement failed the safety contract.
type Rejection struct {
	Reason  RejectReason
	Keyword string // set for ReasonBlockedKeyword
}

func (r *Rejection) String() string {
	if r.Reason == ReasonBlockedKeyword {
		return fmt.Sprintf("%s (%s)", r.Reason, r.Keyword)
	}
	return string(r.Reason)
}

// readOnlyVerbs are the statement-leading keywords the validator accepts.
var readOnlyVerbs = map[string]bool{
	"SELECT": true,
	"WITH":   true,
}

// blockedKeywords must not appear as standalone tokens anywhere in the
// statement. REPLACE is included because REPLACE INTO writes on MySQL and
// SQLite; the false positive on the string function is accepted.
var blockedKeywords = map[string]bool{
	"DROP": true, "DELETE": true, "UPDATE": true, "INSERT": true,
	"ALTER": true, "TRUNCATE": true, "CREATE": true, "ATTACH": true,
	"DETACH": true, "GRANT": true, "REVOKE": true, "EXEC": true,
	"EXECUTE": true, "MERGE": true, "REPLACE": true, "CALL": true,
	"PRAGMA": true, "VACUUM": true,
}

// validate applies the lexical safety contract: the first keyword must be a
// read-only verb, no deny-listed keyword may appear as a whole token, and a
// bare statement separator followed by more content is rejected. This is a
// defense-in-depth layer, not a SQL parser; database privileges are the
// second line.
func validate(stmt string) *Rejection {
	tokens, extraStatement := scan(stmt)

	if len(tokens) == 0 {
		return &Rejection{Reason: ReasonEmpty}
	}
	if !readOnlyVerbs[tokens[0]] {
		return &Rejection{Reason: ReasonNotReadOnly}
	}
	if extraStatement {
		return &Rejection{Reason: ReasonMultipleStatements}
	}
	for _, tok := range tokens {
		if blockedKeywords[tok] {
			return &Rejection{Reason: ReasonBlockedKeyword, Keyword: tok}
		}
	}
	return nil
}

// scan extracts upper-cased word tokens from stmt, skipping string
// literals, quoted identifiers and comments, and reports whether a bare
// semicolon is followed by further non-whitespace content. Word-boundary
// tokenization keeps identifiers like "updated_at" from tripping the
// UPDATE deny rule.
func scan(stmt string) (tokens []string, extraStatement bool) {
	runes := []rune(stmt)
	i := 0
	sawSeparator := false

	for i < len(runes) {
		c := runes[i]
		switch {
		case c == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i += 2
		case c == '\'':
			i = skipQuoted(runes, i, '\'')
		case c == '"':
			i = skipQuoted(runes, i, '"')
		case c == '`':
			i = skipQuoted(runes, i, '`')
		case c == '[':
			for i++; i < len(runes) && runes[i] != ']'; i++ {
			}
			i++
		case c == ';':
			sawSeparator = true
			i++
		case isWordStart(c):
			start := i
			for i < len(runes) && isWordPart(runes[i]) {
				i++
			}
			if sawSeparator {
				extraStatement = true
			}
			tokens = append(tokens, strings.ToUpper(string(runes[start:i])))
		default:
			if sawSeparator && !isSpace(c) {
				extraStatement = true
			}
			i++
		}
	}
	return tokens, extraStatement
}

// skipQuoted advances past a quoted region starting at runes[i], honoring
// doubled-quote escapes.
func skipQuoted(runes []rune, i int, quote rune) int {
	for i++; i < len(runes); i++ {
		if runes[i] == quote {
			if i+1 < len(runes) && runes[i+1] == quote {
				i++
				continue
			}
			return i + 1
		}
	}
	return i
}

func isWordStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordPart(c rune) bool {
	return isWordStart(c) || (c >= '0' && c <= '9')
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// hasRowLimit reports whether the statement already bounds its result set.
func hasRowLimit(stmt string) bool {
	tokens, _ := scan(stmt)
	for _, tok := range tokens {
		if tok == "LIMIT" || tok == "TOP" || tok == "FETCH" {
			return true
		}
	}
	return false
}

// ensureLimit appends the configured row-cap clause when the statement has
// none. The provider is untrusted for resource bounds, so this backstop is
// unconditional. SQL Server has no LIMIT clause; there the executor's
// scan-time cap is the enforcement.
func ensureLimit(stmt, dialect string, maxRows int) string {
	if dialect == "sqlserver" || hasRowLimit(stmt) {
		return stmt
	}
	return fmt.Sprintf("%s LIMIT %d", stmt, maxRows)
}

// cleanStatement strips code-fence markup, surrounding whitespace, trailing
// comments and a single trailing statement separator from raw provider
// output. Trailing comments must go before any clause is appended, or the
// appended text would land inside the comment.
func cleanStatement(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```sql")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	s = trimTrailingComments(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}

// trimTrailingComments cuts the statement after its last non-comment
// content, honoring string literals and quoted identifiers so a comment
// marker inside a literal is not mistaken for a comment.
func trimTrailingComments(s string) string {
	runes := []rune(s)
	i, end := 0, 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case c == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i += 2
		case c == '\'':
			i = skipQuoted(runes, i, '\'')
			end = i
		case c == '"':
			i = skipQuoted(runes, i, '"')
			end = i
		case c == '`':
			i = skipQuoted(runes, i, '`')
			end = i
		case c == '[':
			for i++; i < len(runes) && runes[i] != ']'; i++ {
			}
			i++
			end = i
		case isSpace(c):
			i++
		default:
			i++
			end = i
		}
	}
	if end > len(runes) {
		end = len(runes)
	}
	return strings.TrimSpace(string(runes[:end]))
}
