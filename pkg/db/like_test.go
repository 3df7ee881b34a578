package db

import "testing"

func TestContainsPatternEscapesWildcards(t *testing.T) {
	tests := map[string]string{
		"50% OFF_now": `%50\% off\_now%`,
		` C:\Pune `:   `%c:\\pune%`,
		"":            "%%",
	}
	for in, want := range tests {
		if got := ContainsPattern(in); got != want {
			t.Fatalf("ContainsPattern(%q) = %q, want %q", in, got, want)
		}
	}
}
