// Package translate turns a natural-language question into a single
// validated, read-only SQL statement via a text-completion provider.
package translate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/askdb/askdb/internal/logging"
	"github.com/askdb/askdb/internal/schema"
)

var log = logging.New("translate")

var (
	// ErrProviderUnavailable covers network and auth failures reaching the
	// completion provider.
	ErrProviderUnavailable = errors.New("completion provider unavailable")
	// ErrProviderTimeout covers provider calls that exceeded their bound.
	ErrProviderTimeout = errors.New("completion provider timed out")
)

// Completer is the narrow capability the translator needs from a
// text-completion provider. Tests substitute a fake.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Translator builds prompts from a schema snapshot and validates whatever
// the provider returns against the safety contract.
type Translator struct {
	Completer     Completer
	MaxRows       int    // row-cap backstop appended to unbounded statements
	PromptBudget  int    // character budget for the formatted schema
	DomainContext string // free-text block appended verbatim to every prompt
}

// Outcome is the result of one translation. Exactly one of Statement-only
// (accepted) or Rejection (rejected) applies; provider failures are
// returned as errors instead.
type Outcome struct {
	Statement string
	Rejection *Rejection
}

// Accepted reports whether the statement passed the safety contract.
func (o Outcome) Accepted() bool { return o.Rejection == nil }

// Translate runs one completion call and validates the result. A rejected
// statement is never retried with a different prompt: resubmitting
// unchanged is unlikely to help and silent retry could mask a persistent
// unsafe-generation pattern.
func (t *Translator) Translate(ctx context.Context, question string, desc *schema.Description) (Outcome, error) {
	prompt := t.buildPrompt(question, desc)

	raw, err := t.Completer.Complete(ctx, prompt)
	if err != nil {
		return Outcome{}, providerError(err)
	}

	stmt := cleanStatement(raw)
	if strings.HasPrefix(strings.ToUpper(stmt), "ERROR:") {
		// The prompt contract tells the provider to answer ERROR: [reason]
		// for impossible or unsafe questions.
		log.Printf("provider declined question: %s", stmt)
		return Outcome{Rejection: &Rejection{Reason: ReasonEmpty}}, nil
	}

	if rej := validate(stmt); rej != nil {
		log.Printf("statement rejected (%s): %s", rej, stmt)
		return Outcome{Statement: stmt, Rejection: rej}, nil
	}

	return Outcome{Statement: ensureLimit(stmt, desc.Dialect, t.MaxRows)}, nil
}

func (t *Translator) buildPrompt(question string, desc *schema.Description) string {
	var b strings.Builder
	b.WriteString("Convert the following natural language question into a SQL query.\n\n")
	b.WriteString(schema.SafetyRules(t.MaxRows))
	b.WriteString("\n\n")
	b.WriteString(schema.Format(desc, t.PromptBudget))
	b.WriteString("\n\n")
	b.WriteString(schema.FormatExamples())
	if ctx := strings.TrimSpace(t.DomainContext); ctx != "" {
		b.WriteString("\n\nDOMAIN CONTEXT:\n")
		b.WriteString(ctx)
	}
	fmt.Fprintf(&b, "\n\nNATURAL LANGUAGE QUESTION:\n%q\n\n", question)
	b.WriteString("IMPORTANT: Return ONLY the SQL query, nothing else. No markdown, no explanations.\n")
	return b.String()
}

func providerError(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %v", ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
