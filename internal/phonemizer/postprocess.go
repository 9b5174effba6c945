package phonemizer

import (
	"regexp"
	"strings"

	"github.com/example/go-kokoro-tts/internal/text"
	"github.com/example/go-kokoro-tts/internal/vocab"
)

// Rule is a single phonetic substitution applied to the phonemizer output.
type Rule struct {
	From string
	To   string
}

// DefaultRefinements returns the built-in per-language refinement tables.
// The keys are language code prefixes; lookup tries the full code first and
// falls back to the part before the first '-'. These remaps paper over
// espeak-ng output symbols the vocabulary spells differently: palatalization
// marks become a plain approximant, the bare letter r becomes the English
// tap-free approximant, and a couple of rare consonants collapse to their
// closest vocabulary symbol.
func DefaultRefinements() map[string][]Rule {
	return map[string][]Rule{
		"en": {
			{From: "ʲ", To: "j"},
			{From: "r", To: "ɹ"},
			{From: "x", To: "k"},
			{From: "ɬ", To: "l"},
		},
	}
}

// DefaultColonRenderings returns, per language code prefix, the phonetic
// renderings espeak-ng may emit for a literal colon it chose to speak rather
// than treat as a boundary. These artifacts only appear next to a colon that
// the normalizer itself inserted, and are stripped during post-processing.
func DefaultColonRenderings() map[string][]string {
	return map[string][]string{
		"en-us": {"kˈoʊlən"},
		"en-gb": {"kˈəʊlɒn", "kˈəʊlən"},
		"en":    {"kˈoʊlən", "kˈəʊlɒn", "kˈəʊlən"},
	}
}

var (
	spaceBeforePunctRe = regexp.MustCompile(` +([:,.!?])`)
	bangRunRe          = regexp.MustCompile(`!!+`)
	questionRunRe      = regexp.MustCompile(`\?\?+`)
)

// PostProcessor restores the punctuation and spacing the phonemizer
// discarded and filters the result down to vocabulary symbols. A zero value
// is not usable; construct with NewPostProcessor.
type PostProcessor struct {
	vocab           *vocab.Vocabulary
	refinements     map[string][]Rule
	colonRenderings map[string][]string
}

// NewPostProcessor returns a post-processor over the given vocabulary with
// the default substitution tables.
func NewPostProcessor(v *vocab.Vocabulary) *PostProcessor {
	return &PostProcessor{
		vocab:           v,
		refinements:     DefaultRefinements(),
		colonRenderings: DefaultColonRenderings(),
	}
}

// SetRefinements replaces the refinement table for a language code prefix.
func (p *PostProcessor) SetRefinements(lang string, rules []Rule) {
	p.refinements[lang] = rules
}

// Process re-interleaves punctuation into the phonemizer's output lines and
// applies the phonetic cleanup passes. The returned string contains only
// vocabulary-resident symbols, so tokenization of it can never fail.
func (p *PostProcessor) Process(normalized string, lines []string, lang string) string {
	spans := punctuationSpans(normalized)

	var b strings.Builder
	for i, line := range lines {
		b.WriteString(line)
		if i < len(spans) {
			b.WriteString(spans[i])
		}
	}
	s := b.String()

	s = p.stripColonRenderings(s, lang)

	for _, rule := range lookupLang(p.refinements, lang) {
		s = strings.ReplaceAll(s, rule.From, rule.To)
	}

	// Bounded space collapse: each pass halves run lengths, five passes
	// cover any run the earlier stages can produce.
	for range 5 {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	s = spaceBeforePunctRe.ReplaceAllString(s, "$1")
	s = bangRunRe.ReplaceAllString(s, "!")
	s = questionRunRe.ReplaceAllString(s, "?")
	s = strings.TrimSpace(s)

	return p.filterToVocab(s)
}

// stripColonRenderings removes the spoken rendering of ":" from either side
// of a restored colon.
func (p *PostProcessor) stripColonRenderings(s, lang string) string {
	for _, spoken := range lookupLang(p.colonRenderings, lang) {
		s = strings.ReplaceAll(s, spoken+":", ":")
		s = strings.ReplaceAll(s, spoken+" :", ":")
		s = strings.ReplaceAll(s, ": "+spoken, ": ")
		s = strings.ReplaceAll(s, ":"+spoken, ":")
	}
	return s
}

// filterToVocab drops every rune absent from the vocabulary. This is the
// last-resort guarantee that the token mapper never sees an unknown symbol.
func (p *PostProcessor) filterToVocab(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if p.vocab.Contains(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// punctuationSpans collects, in order, every maximal run of
// punctuation-or-space characters that begins with a punctuation character.
// These runs are exactly what the phonemizer strips at segment boundaries.
func punctuationSpans(s string) []string {
	var spans []string
	runes := []rune(s)

	for i := 0; i < len(runes); {
		if !isPunct(runes[i]) {
			i++
			continue
		}
		j := i
		for j < len(runes) && (isPunct(runes[j]) || runes[j] == ' ') {
			j++
		}
		spans = append(spans, string(runes[i:j]))
		i = j
	}

	return spans
}

func isPunct(r rune) bool {
	return strings.ContainsRune(text.Punctuation, r)
}

// lookupLang finds the table entry for a language code, trying the full code
// first and then its prefix before the first '-'.
func lookupLang[T any](m map[string]T, lang string) T {
	if v, ok := m[lang]; ok {
		return v
	}
	if i := strings.IndexByte(lang, '-'); i > 0 {
		if v, ok := m[lang[:i]]; ok {
			return v
		}
	}
	var zero T
	return zero
}
