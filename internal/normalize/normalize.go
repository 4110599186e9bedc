// Package normalize turns raw CSV cell text into values usable by the
// staging and ledger layers: schema-safe identifiers, column kinds, and
// cleaned currency amounts.
package normalize

import (
	"strconv"
	"strings"
	"unicode"
)

// Kind classifies a staged column.
type Kind int

const (
	KindText Kind = iota
	KindAmount
)

// amountKeywords mark a column as holding currency values. The exports this
// tool reads carry Chinese headers, so the keyword set is Chinese.
var amountKeywords = []string{"金额", "退款", "价格", "费用", "余额", "服务费"}

const digitPrefix = "col_"

// Identifier cleans a raw header cell into a sqlite-safe column name: word
// characters only (letters, digits, underscore), lower-cased, with a "col_"
// prefix when the result would start with a digit. Empty input stays empty;
// the caller must reject empty identifiers.
func Identifier(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return ""
	}
	if first := rune(cleaned[0]); first >= '0' && first <= '9' {
		cleaned = digitPrefix + cleaned
	}
	return cleaned
}

// KindOf returns KindAmount when the identifier contains any of the currency
// keywords, KindText otherwise.
func KindOf(identifier string) Kind {
	for _, kw := range amountKeywords {
		if strings.Contains(identifier, kw) {
			return KindAmount
		}
	}
	return KindText
}

// SQLType maps a column kind to its sqlite storage type.
func (k Kind) SQLType() string {
	if k == KindAmount {
		return "REAL"
	}
	return "TEXT"
}

// Amount cleans a raw currency cell ("¥1,234.56", " -20 ", "N/A") into a
// float. Every rune outside digits, '.' and '-' is dropped before parsing.
// The second return is false when the input was empty or unparsable; the
// value is then 0 and the row must not fail (the caller logs and keeps it).
func Amount(raw string) (float64, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
