// Package beancount models the ledger directives the pipeline emits and
// renders them into beancount text. Rendering carries no decision logic;
// every directive is fully determined by its fields.
package beancount

import "time"

// DateLayout is the beancount date format.
const DateLayout = "2006-01-02"

// Directive is a single renderable ledger statement.
type Directive interface {
	// String renders the directive as beancount text without a
	// trailing newline.
	String() string
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}
