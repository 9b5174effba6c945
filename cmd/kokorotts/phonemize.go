package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/example/go-kokoro-tts/internal/phonemizer"
	"github.com/example/go-kokoro-tts/internal/text"
	"github.com/example/go-kokoro-tts/internal/tokenizer"
	"github.com/example/go-kokoro-tts/internal/vocab"
	"github.com/spf13/cobra"
)

// newPhonemizeCmd inspects the text pipeline without touching the model:
// it prints the normalized text, the phoneme string, and optionally the
// token ids that synthesis would feed into inference.
func newPhonemizeCmd() *cobra.Command {
	var input string
	var lang string
	var showTokens bool

	cmd := &cobra.Command{
		Use:   "phonemize",
		Short: "Show the phoneme string and tokens for a text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			inputText, err := readSynthText(input, os.Stdin)
			if err != nil {
				return err
			}
			if lang == "" {
				lang = cfg.Phonemizer.Language
			}

			normalized := text.Normalize(inputText)
			if normalized == "" {
				return fmt.Errorf("input produced no speakable content")
			}

			esp := &phonemizer.ESpeak{
				ExecutablePath: cfg.Phonemizer.ExecutablePath,
				DataDir:        cfg.Phonemizer.DataDir,
			}
			lines, err := esp.Phonemize(cmd.Context(), normalized, lang)
			if err != nil {
				return err
			}

			v := vocab.Default()
			phonemes := phonemizer.NewPostProcessor(v).Process(normalized, lines, lang)

			fmt.Fprintf(os.Stdout, "normalized: %s\n", normalized)
			fmt.Fprintf(os.Stdout, "phonemes:   %s\n", phonemes)

			if showTokens {
				tokens, err := tokenizer.New(v).Encode(phonemes)
				if err != nil {
					return err
				}
				ids := make([]string, len(tokens))
				for i, id := range tokens {
					ids[i] = fmt.Sprintf("%d", id)
				}
				fmt.Fprintf(os.Stdout, "tokens:     [%s]\n", strings.Join(ids, " "))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to phonemize (if empty, read from stdin)")
	cmd.Flags().StringVar(&lang, "lang", "", "Phonemization language (overrides config)")
	cmd.Flags().BoolVar(&showTokens, "tokens", false, "Also print token ids")

	return cmd
}
