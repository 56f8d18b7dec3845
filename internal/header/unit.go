package header

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/catalog-importer/constants"
)

type unitKeyword struct {
	keyword string
	unit    string
}

// wordEndKeywords must not be followed by a letter, so "/m" skips "/mm" and "/moq".
var wordEndKeywords = map[string]bool{"/mt": true, "/m": true, "per m": true}

// unitKeywords is scanned in order; the first keyword found wins, so longer
// or more specific spellings come before their prefixes.
var unitKeywords = []unitKeyword{
	{"m2", constants.UnitSquareMeter},
	{"m²", constants.UnitSquareMeter},
	{"sqm", constants.UnitSquareMeter},
	{"sq.m", constants.UnitSquareMeter},
	{"sq m", constants.UnitSquareMeter},
	{"平方", constants.UnitSquareMeter},
	{"m3", constants.UnitCubicMeter},
	{"m³", constants.UnitCubicMeter},
	{"cbm", constants.UnitCubicMeter},
	{"pcs", constants.UnitPiece},
	{"piece", constants.UnitPiece},
	{"/pc", constants.UnitPiece},
	{"件", constants.UnitPiece},
	{"个", constants.UnitPiece},
	{"只", constants.UnitPiece},
	{"/set", constants.UnitSet},
	{"per set", constants.UnitSet},
	{"sets", constants.UnitSet},
	{"套", constants.UnitSet},
	{"pair", constants.UnitPair},
	{"双", constants.UnitPair},
	{"对", constants.UnitPair},
	{"kg", constants.UnitKilogram},
	{"公斤", constants.UnitKilogram},
	{"千克", constants.UnitKilogram},
	{"/ton", constants.UnitTon},
	{"/mt", constants.UnitTon},
	{"per ton", constants.UnitTon},
	{"吨", constants.UnitTon},
	{"meter", constants.UnitMeter},
	{"metre", constants.UnitMeter},
	{"/m", constants.UnitMeter},
	{"per m", constants.UnitMeter},
	{"米", constants.UnitMeter},
}

// DetectUnit returns the normalized unit named in a price header, if any.
func DetectUnit(headerText string) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(headerText))
	if text == "" {
		return "", false
	}
	for _, kw := range unitKeywords {
		if kw.matches(text) {
			return kw.unit, true
		}
	}
	return "", false
}

func (kw unitKeyword) matches(text string) bool {
	if !wordEndKeywords[kw.keyword] {
		return strings.Contains(text, kw.keyword)
	}
	for rest := text; ; {
		i := strings.Index(rest, kw.keyword)
		if i < 0 {
			return false
		}
		rest = rest[i+len(kw.keyword):]
		next, _ := utf8.DecodeRuneInString(rest)
		if rest == "" || !unicode.IsLetter(next) {
			return true
		}
	}
}
