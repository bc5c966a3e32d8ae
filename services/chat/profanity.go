package chat

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// blockedWords is the fixed profanity list, matched whole-word against
// normalized text.
var blockedWords = map[string]bool{
	"fuck":    true,
	"shit":    true,
	"bitch":   true,
	"asshole": true,
	"bastard": true,
	"dick":    true,
	"cunt":    true,
	"tangina": true,
	"gago":    true,
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeText lowercases, strips diacritics, replaces punctuation with
// spaces, and collapses whitespace, so "Fûck!!" matches the same as "fuck".
func normalizeText(s string) string {
	stripped, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		stripped = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// findBlockedWord returns the first blocked word in the text, if any.
func findBlockedWord(text string) (string, bool) {
	for _, word := range strings.Fields(normalizeText(text)) {
		if blockedWords[word] {
			return word, true
		}
	}
	return "", false
}
