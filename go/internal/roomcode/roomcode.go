package roomcode

import (
	"math/rand"
	"time"
)

const (
	letters    = "0123456789abcdefghijklmnopqrstuvwxyz"
	codeLength = 5
)

// Generate returns a short lowercase base36 room code. Codes are shared
// between friends out of band, so they favor being easy to read aloud over
// being unguessable.
func Generate() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = letters[r.Intn(len(letters))]
	}
	return string(code)
}

// IsValid reports whether s looks like a generated room code.
func IsValid(s string) bool {
	if len(s) != codeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
