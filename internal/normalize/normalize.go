// Package normalize turns raw place-name text into a canonical comparison key.
//
// Government evacuation tables and census geography files spell the same
// community differently ("Town of Flin Flon" vs "Flin Flon", accented vs
// plain forms). Normalization lowercases, folds diacritics to ASCII, strips
// a single administrative prefix, and collapses whitespace so that both
// sides of a match compare on the same key.
package normalize

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// prefixes are checked in order; only the first match is removed.
var prefixes = []string{
	"town of ",
	"city of ",
	"rm of ",
	"r.m. of ",
	"rural municipality of ",
	"municipality of ",
	"village of ",
	"northern village of ",
}

// Name converts a raw place name into its canonical matching key.
// It is pure and total: any input, including the empty string, yields a
// (possibly empty) normalized string, and applying Name twice gives the
// same result as applying it once.
func Name(s string) string {
	s = strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))

	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}

	return strings.Join(strings.Fields(s), " ")
}
