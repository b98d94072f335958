package notify

import (
	"strings"
	"testing"

	"relaypoint/internal/types"
)

// --- EncodePart / DecodePart Tests ---

func TestEncodePart_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain object id", "build:42", "YnVpbGQ6NDI="},
		{"message id", "daily", "ZGFpbHk="},
		{"slash becomes dash", "?>?", "Pz4-"},
		{"plus preserved", ">>>", "Pj4+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodePart(tt.in); got != tt.want {
				t.Errorf("EncodePart(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodePart_DecodePart_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"a",
		"build:42",
		"path/with/slashes",
		".",
		"..",
		"__reserved__",
		"händel",
		"проверка",
		"漢字テスト",
		strings.Repeat("x", 300),
		"mixed ☃ snowman / slash + plus",
	}

	for _, in := range inputs {
		encoded := EncodePart(in)
		if strings.ContainsAny(encoded, "/") {
			t.Errorf("EncodePart(%q) = %q contains '/'", in, encoded)
		}
		decoded, err := DecodePart(encoded)
		if err != nil {
			t.Errorf("DecodePart(EncodePart(%q)) returned error: %v", in, err)
			continue
		}
		if decoded != in {
			t.Errorf("DecodePart(EncodePart(%q)) = %q, want original", in, decoded)
		}
	}
}

func TestDecodePart_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"invalid characters", "!@#$"},
		{"truncated group", "A"},
		{"standard alphabet slash", "Pz4/"},
		{"non-canonical padding bits", "QR=="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePart(tt.in)
			if err == nil {
				t.Fatalf("DecodePart(%q) succeeded, want error", tt.in)
			}
			if code := types.CodeOf(err); code != types.ErrCodeDecodeIDPart {
				t.Errorf("DecodePart(%q) error code = %q, want %q", tt.in, code, types.ErrCodeDecodeIDPart)
			}
		})
	}
}
