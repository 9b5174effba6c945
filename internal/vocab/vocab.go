// Package vocab holds the fixed symbol table shared between the text
// pipeline and the acoustic model. Symbol ids are positional: the order of
// the symbol lists below defines the token id of each symbol, and that
// ordering is part of the model contract; changing it breaks every
// published voice and model checkpoint.
package vocab

import (
	"fmt"
	"sync"
)

// Symbol groups, concatenated in id order. The pad symbol always maps to 0.
const (
	pad         = "$"
	punctuation = `;:,.!?¡¿—…"«»“” `
	letters     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	lettersIPA  = "ɑɐɒæɓʙβɔɕçɗɖðʤəɘɚɛɜɝɞɟʄɡɠɢʛɦɧħɥʜɨɪʝɭɬɫɮʟɱɯɰŋɳɲɴøɵɸθœɶʘɹɺɾɻʀʁɽʂʃʈʧʉʊʋⱱʌɣɤʍχʎʏʑʐʒʔʡʕʢǀǁǂǃˈˌːˑʼʴʰʱʲʷˠˤ˞↓↑→↗↘'̩'ᵻ"
)

// PadID is the token id of the reserved pad symbol.
const PadID int64 = 0

// Vocabulary is a bidirectional symbol↔token table. It is immutable after
// construction; methods are safe for concurrent use.
type Vocabulary struct {
	ids     map[rune]int64
	symbols map[int64]rune
}

var (
	defaultOnce sync.Once
	defaultVoc  *Vocabulary
)

// Default returns the process-wide vocabulary, built on first use.
func Default() *Vocabulary {
	defaultOnce.Do(func() {
		defaultVoc = New()
	})
	return defaultVoc
}

// New builds the vocabulary from the fixed symbol lists. When a symbol
// appears more than once (the apostrophe occurs twice in the IPA list) the
// later position wins, matching the reference id assignment.
func New() *Vocabulary {
	v := &Vocabulary{
		ids:     make(map[rune]int64, 200),
		symbols: make(map[int64]rune, 200),
	}

	var id int64
	for _, group := range []string{pad, punctuation, letters, lettersIPA} {
		for _, r := range group {
			if old, dup := v.ids[r]; dup {
				delete(v.symbols, old)
			}
			v.ids[r] = id
			v.symbols[id] = r
			id++
		}
	}

	return v
}

// ID returns the token id for a symbol.
func (v *Vocabulary) ID(r rune) (int64, error) {
	id, ok := v.ids[r]
	if !ok {
		return 0, fmt.Errorf("unknown symbol %q (U+%04X)", r, r)
	}
	return id, nil
}

// Contains reports whether the symbol is part of the vocabulary.
func (v *Vocabulary) Contains(r rune) bool {
	_, ok := v.ids[r]
	return ok
}

// Symbol returns the symbol for a token id.
func (v *Vocabulary) Symbol(id int64) (rune, error) {
	r, ok := v.symbols[id]
	if !ok {
		return 0, fmt.Errorf("unknown token id %d", id)
	}
	return r, nil
}

// Size returns the number of distinct symbols in the table.
func (v *Vocabulary) Size() int {
	return len(v.ids)
}
