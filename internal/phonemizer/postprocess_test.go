package phonemizer

import (
	"strings"
	"testing"

	"github.com/example/go-kokoro-tts/internal/tokenizer"
	"github.com/example/go-kokoro-tts/internal/vocab"
)

func TestPunctuationSpans(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "no punctuation",
			input: "hello world",
			want:  nil,
		},
		{
			name:  "single trailing period",
			input: "hello world.",
			want:  []string{"."},
		},
		{
			name:  "comma with trailing space",
			input: "hello, world",
			want:  []string{", "},
		},
		{
			name:  "multiple spans in order",
			input: "one, two. three! four",
			want:  []string{", ", ". ", "! "},
		},
		{
			name:  "run of punctuation and spaces is one span",
			input: "wait... what",
			want:  []string{"... "},
		},
		{
			name:  "span must start with punctuation not space",
			input: "a b, c",
			want:  []string{", "},
		},
		{
			name:  "colon boundary",
			input: "before: after: end",
			want:  []string{": ", ": "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := punctuationSpans(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("punctuationSpans(%q) = %q, want %q", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("span[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestProcessReinterleavesPunctuation(t *testing.T) {
	p := NewPostProcessor(vocab.New())

	normalized := "hello, world."
	lines := []string{"həlˈoʊ", "wˈɜːld"}

	got := p.Process(normalized, lines, "en-us")
	want := "həlˈoʊ, wˈɜːld."
	if got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessMoreLinesThanSpans(t *testing.T) {
	p := NewPostProcessor(vocab.New())

	// Final segment has no trailing punctuation: the extra line is appended
	// without a span.
	got := p.Process("one, two", []string{"wˈʌn", "tˈuː"}, "en-us")
	want := "wˈʌn, tˈuː"
	if got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessStripsColonRendering(t *testing.T) {
	p := NewPostProcessor(vocab.New())

	// The normalizer turned a newline into ":", and espeak spoke it.
	got := p.Process("first: second", []string{"fˈɜːst kˈoʊlən", "sˈɛkənd"}, "en-us")
	want := "fˈɜːst: sˈɛkənd"
	if got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessAppliesRefinements(t *testing.T) {
	p := NewPostProcessor(vocab.New())

	got := p.Process("read", []string{"rˈiːd"}, "en-us")
	if !strings.Contains(got, "ɹ") || strings.Contains(got, "r") {
		t.Fatalf("expected r→ɹ refinement, got %q", got)
	}
}

func TestProcessRefinementsConfigurablePerLanguage(t *testing.T) {
	p := NewPostProcessor(vocab.New())
	p.SetRefinements("xx", []Rule{{From: "a", To: "ɑ"}})

	got := p.Process("ba", []string{"ba"}, "xx")
	if got != "bɑ" {
		t.Fatalf("Process with custom rules = %q, want %q", got, "bɑ")
	}

	// A language with no table applies no refinements.
	got = p.Process("ba", []string{"ba"}, "zz")
	if got != "ba" {
		t.Fatalf("Process without rules = %q, want %q", got, "ba")
	}
}

func TestProcessCollapsesSpacesAndPunctuationRuns(t *testing.T) {
	p := NewPostProcessor(vocab.New())

	got := p.Process("wow!!! really??", []string{"wˈaʊ", "ɹˈiəli"}, "en-us")
	if strings.Contains(got, "!!") || strings.Contains(got, "??") {
		t.Fatalf("expected punctuation runs collapsed, got %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Fatalf("expected spaces collapsed, got %q", got)
	}
	if strings.Contains(got, " !") || strings.Contains(got, " ?") {
		t.Fatalf("expected no space before punctuation, got %q", got)
	}
}

func TestProcessFiltersToVocabulary(t *testing.T) {
	p := NewPostProcessor(vocab.New())

	// Cyrillic and emoji are not vocabulary symbols and must vanish.
	got := p.Process("hi", []string{"hˈaɪ ж 🎉"}, "en-us")
	if strings.ContainsRune(got, 'ж') || strings.Contains(got, "🎉") {
		t.Fatalf("expected non-vocabulary symbols dropped, got %q", got)
	}
}

func TestProcessOutputAlwaysTokenizable(t *testing.T) {
	p := NewPostProcessor(vocab.New())
	tok := tokenizer.New(vocab.New())

	cases := []struct {
		normalized string
		lines      []string
	}{
		{"hello, world.", []string{"həlˈoʊ", "wˈɜːld"}},
		{"a: b", []string{"ˈeɪ kˈoʊlən", "bˈiː"}},
		{"junk", []string{"ʐʑж∆ 日本語 hˈaɪ"}},
		{"", nil},
	}

	for _, c := range cases {
		out := p.Process(c.normalized, c.lines, "en-us")
		if _, err := tok.Encode(out); err != nil {
			t.Errorf("tokenize(%q) failed: %v", out, err)
		}
	}
}
