// Package receipt turns free-form receipt text into a currency amount.
package receipt

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoAmount is returned when no extraction rule matches the text.
var ErrNoAmount = errors.New("no amount found in text")

// Rule is a single extraction pattern. The first capture group must be the
// numeric literal, possibly with comma thousands separators.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Rules are tried in priority order over the whole text; the first rule
// whose match also parses wins. A match that fails to parse falls through
// to the next rule.
var Rules = []Rule{
	{
		Name:    "labeled-total",
		Pattern: regexp.MustCompile(`(?i)(?:TOTAL|AMOUNT)[\s:]*[₦$£€]?\s*(\d+(?:,\d+)*(?:\.\d+)?)`),
	},
	{
		Name:    "symbol-prefixed",
		Pattern: regexp.MustCompile(`[₦$£€]\s*(\d+(?:,\d+)*(?:\.\d+)?)`),
	},
	{
		Name:    "iso-code-suffixed",
		Pattern: regexp.MustCompile(`(\d+(?:,\d+)*(?:\.\d+)?)\s*(?:NGN|USD|GBP|EUR)`),
	},
}

// Extract parses an amount out of receipt text. It is a pure function:
// no I/O, no state. Callers must fall back to a manually supplied amount
// when it returns ErrNoAmount.
func Extract(text string) (float64, error) {
	for _, rule := range Rules {
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		literal := strings.ReplaceAll(m[1], ",", "")
		amount, err := strconv.ParseFloat(literal, 64)
		if err != nil || amount < 0 {
			continue
		}
		return amount, nil
	}
	return 0, ErrNoAmount
}
