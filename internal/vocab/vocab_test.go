package vocab

import "testing"

func TestPadSymbolIsZero(t *testing.T) {
	v := New()

	id, err := v.ID('$')
	if err != nil {
		t.Fatalf("ID('$'): %v", err)
	}
	if id != PadID {
		t.Fatalf("pad symbol id = %d, want %d", id, PadID)
	}
}

func TestIDKnownSymbols(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		symbol rune
	}{
		{"semicolon", ';'},
		{"space", ' '},
		{"uppercase latin", 'A'},
		{"lowercase latin", 'z'},
		{"ipa open back vowel", 'ɑ'},
		{"ipa turned r", 'ɹ'},
		{"primary stress mark", 'ˈ'},
		{"length mark", 'ː'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.ID(tt.symbol)
			if err != nil {
				t.Fatalf("ID(%q): %v", tt.symbol, err)
			}
			if id <= 0 {
				t.Fatalf("ID(%q) = %d, want > 0", tt.symbol, id)
			}
		})
	}
}

func TestIDUnknownSymbol(t *testing.T) {
	v := New()

	_, err := v.ID('€')
	if err == nil {
		t.Fatal("expected error for symbol outside the vocabulary")
	}
}

func TestBijective(t *testing.T) {
	v := New()

	for r, id := range v.ids {
		back, err := v.Symbol(id)
		if err != nil {
			t.Fatalf("Symbol(%d): %v", id, err)
		}
		if back != r {
			t.Fatalf("Symbol(ID(%q)) = %q", r, back)
		}
	}
}

func TestStableOrdering(t *testing.T) {
	// Ids are positional in the symbol lists: punctuation directly follows
	// the pad symbol, letters follow punctuation.
	v := New()

	semi, _ := v.ID(';')
	if semi != 1 {
		t.Fatalf("';' id = %d, want 1", semi)
	}

	upperA, _ := v.ID('A')
	if upperA != int64(1+len([]rune(punctuation))) {
		t.Fatalf("'A' id = %d, want %d", upperA, 1+len([]rune(punctuation)))
	}
}

func TestDefaultIsSingleton(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default returned two distinct instances")
	}
}

func TestSize(t *testing.T) {
	v := New()
	// One apostrophe duplicate collapses, everything else is distinct.
	if v.Size() < 170 || v.Size() > 185 {
		t.Fatalf("Size() = %d, want roughly 178", v.Size())
	}
	if len(v.ids) != len(v.symbols) {
		t.Fatalf("forward table has %d entries, inverse has %d", len(v.ids), len(v.symbols))
	}
}
