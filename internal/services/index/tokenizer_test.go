package index

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty string",
			text: "",
			want: []string{},
		},
		{
			name: "lowercases terms",
			text: "Hello World",
			want: []string{"hello", "world"},
		},
		{
			name: "strips punctuation",
			text: "What's the pricing, really?",
			want: []string{"what", "the", "pricing", "really"},
		},
		{
			name: "drops single character tokens",
			text: "a b plan c",
			want: []string{"plan"},
		},
		{
			name: "keeps numbers",
			text: "$1,299/month for v2",
			want: []string{"299", "month", "for", "v2"},
		},
		{
			name: "punctuation only",
			text: "!!! ... ???",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	text := "The Workstream Professional plan costs $1,299/month."
	first := Tokenize(text)
	for i := 0; i < 10; i++ {
		if got := Tokenize(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("Tokenize not deterministic: run %d = %v, first = %v", i, got, first)
		}
	}
}

func TestTermCounts(t *testing.T) {
	counts := TermCounts([]string{"plan", "price", "plan"})
	if counts["plan"] != 2 || counts["price"] != 1 {
		t.Errorf("TermCounts = %v, want plan=2 price=1", counts)
	}
}
