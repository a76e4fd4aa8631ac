package roomcode

import "testing"

func TestGenerate(t *testing.T) {
	code := Generate()
	if len(code) != codeLength {
		t.Errorf("wrong length expected: %d got %d", codeLength, len(code))
	}
	if !IsValid(code) {
		t.Errorf("generated code %q is not valid", code)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"abc12", true},
		{"zzzzz", true},
		{"00000", true},
		{"", false},
		{"abcd", false},
		{"abcdef", false},
		{"ABC12", false},
		{"ab 12", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.code); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
