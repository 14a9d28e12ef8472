package beancount

import "strings"

// TokenSymbol is a commodity symbol normalized to what the beancount
// grammar accepts: uppercase, no "$" or "+", no leading digit.
type TokenSymbol string

// NewSymbol normalizes a raw on-chain token symbol.
// E.g. "twd" -> "TWD", "1INCH" -> "INCH", "$BASED" -> "BASED"
func NewSymbol(raw string) TokenSymbol {
	s := strings.ToUpper(raw)
	s = strings.NewReplacer("$", "", "+", "").Replace(s)
	if len(s) > 0 && s[0] >= '0' && s[0] <= '9' {
		s = s[1:]
	}
	return TokenSymbol(s)
}

func (s TokenSymbol) String() string {
	return string(s)
}
