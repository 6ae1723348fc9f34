package submissions

import (
	"reflect"
	"testing"
)

func TestParseHashtags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  \t\n ", nil},
		{"comma separated", "dance,viral,fyp", []string{"#dance", "#viral", "#fyp"}},
		{"space separated", "dance viral fyp", []string{"#dance", "#viral", "#fyp"}},
		{"mixed separators", "dance, viral\tfyp", []string{"#dance", "#viral", "#fyp"}},
		{"hash preserved", "#dance #viral", []string{"#dance", "#viral"}},
		{"duplicates kept", "dance, dance", []string{"#dance", "#dance"}},
		{"mixed prefix", "#dance, viral", []string{"#dance", "#viral"}},
		{"trailing commas", "dance,,viral,", []string{"#dance", "#viral"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseHashtags(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseHashtags(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
