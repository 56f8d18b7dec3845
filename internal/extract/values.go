package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// numberToken joins space-separated groups only as thousands ("1 234,50");
// any other space ends the number.
var numberToken = regexp.MustCompile(`\d{1,3}(?: \d{3})+(?:[.,]\d+)?\b|\d[\d,.']*`)

// ParsePrice pulls the first number out of a price cell such as "USD 1,234.50/m2" or "12,50 €".
// Currency markers and thousands separators are dropped; negative or unparsable values report false.
func ParsePrice(raw string) (decimal.Decimal, bool) {
	tok := firstNumber(raw)
	if tok == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(normalizeSeparators(tok))
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseQuantity reads a whole, positive quantity such as "100", "1,000 pcs" or "100.0".
func ParseQuantity(raw string) (int, bool) {
	tok := firstNumber(raw)
	if tok == "" {
		return 0, false
	}
	tok = strings.ReplaceAll(tok, ",", "")
	if i := strings.LastIndex(tok, "."); i >= 0 && len(tok)-i-1 == 3 {
		tok = strings.ReplaceAll(tok, ".", "")
	}
	d, err := decimal.NewFromString(tok)
	if err != nil || !d.IsInteger() || !d.IsPositive() {
		return 0, false
	}
	if d.GreaterThan(decimal.NewFromInt(1 << 31)) {
		return 0, false
	}
	return int(d.IntPart()), true
}

func firstNumber(raw string) string {
	tok := numberToken.FindString(raw)
	tok = strings.NewReplacer(" ", "", "'", "").Replace(tok)
	return strings.TrimRight(tok, ".,")
}

// normalizeSeparators rewrites a token to use "." as the only decimal point.
func normalizeSeparators(tok string) string {
	lastComma := strings.LastIndex(tok, ",")
	lastDot := strings.LastIndex(tok, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// 1.234,50
			tok = strings.ReplaceAll(tok, ".", "")
			return strings.Replace(tok, ",", ".", 1)
		}
		return strings.ReplaceAll(tok, ",", "")
	case lastComma >= 0:
		if strings.Count(tok, ",") == 1 && len(tok)-lastComma-1 != 3 {
			return strings.Replace(tok, ",", ".", 1)
		}
		return strings.ReplaceAll(tok, ",", "")
	case strings.Count(tok, ".") > 1:
		return strings.ReplaceAll(tok, ".", "")
	default:
		return tok
	}
}
