package contacts

import (
	"reflect"
	"testing"
)

func TestCleanTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil", in: nil, want: []string{}},
		{name: "trims", in: []string{" Intel ", "Software Engineering"}, want: []string{"Intel", "Software Engineering"}},
		{name: "drops blanks", in: []string{"", "  ", "Intel"}, want: []string{"Intel"}},
		{name: "dedupes after trim", in: []string{"Intel", "Intel ", "AMD", "Intel"}, want: []string{"Intel", "AMD"}},
		{name: "case sensitive", in: []string{"intel", "Intel"}, want: []string{"intel", "Intel"}},
		{name: "inner whitespace kept", in: []string{"Software  Engineering", "Software Engineering"}, want: []string{"Software  Engineering", "Software Engineering"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanTags(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CleanTags(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
