// Package tokenizer maps phoneme strings to model token ids. The mapping is
// one token per symbol via the shared vocabulary; there is no merging or
// subword logic.
package tokenizer

import (
	"errors"
	"fmt"

	"github.com/example/go-kokoro-tts/internal/vocab"
)

// ErrUnknownSymbol is returned when a phoneme string contains a symbol that
// is not in the vocabulary. The post-processing stage filters its output to
// vocabulary symbols, so hitting this on pipeline output indicates a
// programming error upstream, not bad user input.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Tokenizer encodes phoneme strings into token ids.
type Tokenizer struct {
	vocab *vocab.Vocabulary
}

// New returns a tokenizer over the given vocabulary.
func New(v *vocab.Vocabulary) *Tokenizer {
	return &Tokenizer{vocab: v}
}

// Encode maps each symbol of the phoneme string to its token id, in order.
func (t *Tokenizer) Encode(phonemes string) ([]int64, error) {
	tokens := make([]int64, 0, len(phonemes))
	for _, r := range phonemes {
		id, err := t.vocab.ID(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %q (U+%04X)", ErrUnknownSymbol, r, r)
		}
		tokens = append(tokens, id)
	}
	return tokens, nil
}
