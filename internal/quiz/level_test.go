package quiz

import "testing"

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"N3", LevelN3, true},
		{"n1", LevelN1, true},
		{" n5 ", LevelN5, true},
		{"N6", LevelNone, false},
		{"", LevelNone, false},
		{"hard", LevelNone, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLevelOf(t *testing.T) {
	tests := []struct {
		question string
		want     Level
	}{
		{"[N1] 彼の話し方は論理的で、説得力に_______。", LevelN1},
		{"  [n4] 昨日は友達と公園で_______。", LevelN4},
		{"How do you say 'river'? [N5]", LevelNone},
		{"no tag", LevelNone},
	}
	for _, tt := range tests {
		if got := LevelOf(tt.question); got != tt.want {
			t.Errorf("LevelOf(%q) = %q, want %q", tt.question, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelNone.String() != "any" {
		t.Errorf("LevelNone.String() = %q", LevelNone.String())
	}
	if LevelN2.String() != "N2" {
		t.Errorf("LevelN2.String() = %q", LevelN2.String())
	}
}
