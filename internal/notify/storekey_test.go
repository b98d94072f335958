package notify

import (
	"strings"
	"testing"
)

func TestIsValidStoreKey(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"plain identifier", "normal_id", true},
		{"empty string", "", true},
		{"single dot", ".", false},
		{"double dot", "..", false},
		{"triple dot", "...", true},
		{"contains slash", "a/b", false},
		{"leading slash", "/a", false},
		{"reserved prefix and suffix", "__x__", false},
		{"reserved prefix only", "__x", true},
		{"reserved suffix only", "x__", true},
		{"bare reserved marker", "____", false},
		{"composite notification id", "build_fail:builds:YnVpbGQ6NDI=:ZGFpbHk=", true},
		{"exactly 1500 bytes", strings.Repeat("k", 1500), true},
		{"1501 bytes", strings.Repeat("k", 1501), false},
		{"multi-byte counted in bytes", strings.Repeat("ё", 751), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidStoreKey(tt.value); got != tt.want {
				t.Errorf("IsValidStoreKey(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
