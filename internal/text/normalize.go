// Package text prepares raw input text for the external phonemizer.
package text

import (
	"regexp"
	"strings"
)

// Punctuation is the set of characters the phonemizer splits segments on.
// The normalizer guarantees a space after each of them so that segment
// boundaries in the phonemizer output line up with the punctuation spans
// recovered during post-processing.
const Punctuation = ":,.!?"

// segmentMark is an internal placeholder for characters the phonemizer does
// not tokenize sensibly (newlines, parentheses, brackets). It is a private
// use rune so it can never collide with user text, and it is rewritten to a
// colon before the normalizer returns: the phonemizer treats a colon as a
// hard segment boundary, which is the semantic we want for such structure.
const segmentMark = ""

// currencyNames maps currency symbols to their spoken singular form.
var currencyNames = map[string]string{
	"$": "dollar",
	"€": "euro",
	"£": "pound",
	"¥": "yen",
	"₹": "rupee",
	"₽": "ruble",
	"₩": "won",
	"₺": "lira",
	"₫": "dong",
}

var (
	structureRe  = regexp.MustCompile("[\n()\\[\\]]")
	markRunRe    = regexp.MustCompile("(?:[ \t]*)+")
	currencyRe   = regexp.MustCompile(`([$€£¥₹₽₩₺₫])[ \t]*(\d+)(?:\.(\d+))?`)
	decimalRe    = regexp.MustCompile(`(\d+)\.(\d+)`)
	wwwRe        = regexp.MustCompile(`\bwww\.[A-Za-z0-9][A-Za-z0-9.\-]*`)
	domainRe     = regexp.MustCompile(`\b[A-Za-z0-9][A-Za-z0-9\-]*(?:\.[A-Za-z0-9\-]+)*\.(?:com|net|org|io|edu|gov|mil|co|us|uk|de|fr|es|it|nl|jp|au|ca)\b`)
	honorificRe  = regexp.MustCompile(`\b([Dd][Rr]|[Mm][Rr]|[Mm][Ss])\.[ \t]+(\p{Lu})`)
	clockRe      = regexp.MustCompile(`(^|[^0-9:])(1[0-2]|[1-9]):([0-5][0-9])($|[^0-9:])`)
	punctSpaceRe = regexp.MustCompile(`([:,.!?])`)
	multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
)

// honorificNames maps the lowercase two-letter honorific to its expansion.
var honorificNames = map[string]string{
	"dr": "Doctor",
	"mr": "Mister",
	"ms": "Miss",
}

// Normalize rewrites raw text into the form fed to the phonemizer. The
// passes run in a fixed order; later passes assume earlier ones already ran.
// Normalize is pure and idempotent: already-normalized text is a fixed point.
//
// An input consisting solely of punctuation degenerates to the empty string.
// That is a defined outcome, not an error.
func Normalize(s string) string {
	// Line endings first so the structure pass only sees \n.
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	// Pass 1: strip smart quotes and guillemets, collapse doubled asterisks.
	s = strings.NewReplacer("“", "", "”", "", "‘", "", "’", "", "«", "", "»", "", "**", "*").Replace(s)

	// Pass 2: structural characters become a single segment mark, runs of
	// marks collapse to one, and the mark is rewritten to a colon.
	s = structureRe.ReplaceAllString(s, segmentMark)
	s = markRunRe.ReplaceAllString(s, segmentMark)
	s = strings.ReplaceAll(s, segmentMark, ":")

	// Pass 3: currency amounts.
	s = currencyRe.ReplaceAllStringFunc(s, expandCurrency)

	// Pass 4: decimal points spoken digit by digit.
	s = decimalRe.ReplaceAllStringFunc(s, expandDecimal)

	// Pass 5: domains and URLs speak their dots.
	s = wwwRe.ReplaceAllStringFunc(s, speakDots)
	s = domainRe.ReplaceAllStringFunc(s, speakDots)

	// Pass 6: honorifics before a capitalized word.
	s = honorificRe.ReplaceAllStringFunc(s, expandHonorific)

	// Pass 7: clock times, unless already adjacent to another colon. The
	// boundary groups consume a character, so back-to-back times need
	// another round; iterate until the rewrite converges.
	for {
		out := clockRe.ReplaceAllString(s, "${1}${2} ${3}${4}")
		if out == s {
			break
		}
		s = out
	}

	// Pass 8: guarantee a segment split at every punctuation character.
	s = punctSpaceRe.ReplaceAllString(s, "$1 ")

	// Pass 9: collapse space runs, trim, and strip leading punctuation so
	// the phonemizer never sees a line that starts with a separator.
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, Punctuation+" ")

	return s
}

func expandCurrency(m string) string {
	sub := currencyRe.FindStringSubmatch(m)
	symbol, whole, frac := sub[1], sub[2], sub[3]

	name, ok := currencyNames[symbol]
	if !ok {
		return m
	}

	amount := whole
	if frac != "" {
		amount = whole + " " + frac
	}
	if frac == "" && whole == "1" {
		return amount + " " + name
	}
	return amount + " " + name + "s"
}

func expandDecimal(m string) string {
	sub := decimalRe.FindStringSubmatch(m)
	whole, frac := sub[1], sub[2]

	var b strings.Builder
	b.WriteString(whole)
	b.WriteString(" point")
	for _, d := range frac {
		b.WriteByte(' ')
		b.WriteRune(d)
	}
	return b.String()
}

func speakDots(m string) string {
	return strings.ReplaceAll(m, ".", " dot ")
}

func expandHonorific(m string) string {
	sub := honorificRe.FindStringSubmatch(m)
	name, ok := honorificNames[strings.ToLower(sub[1])]
	if !ok {
		return m
	}
	return name + " " + sub[2]
}
