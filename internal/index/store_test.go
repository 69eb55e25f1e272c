package index

import "testing"

func TestStripVersion(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"2101.00123v3", "2101.00123"},
		{"2101.00123v12", "2101.00123"},
		{"2101.00123", "2101.00123"},
		{"hep-th/9901001v2", "hep-th/9901001"},
		// A 'v' not followed by a number is part of the identifier.
		{"cond-mat.dev", "cond-mat.dev"},
		{"v2", "v2"},
	}
	for _, tt := range tests {
		if got := stripVersion(tt.id); got != tt.want {
			t.Errorf("stripVersion(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
