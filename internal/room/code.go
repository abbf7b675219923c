// internal/room/code.go
package room

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

// CodeAlphabet is the room code character set. 0, 1, I and O are
// excluded so codes survive being read out loud or scribbled down.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed room code length.
const CodeLength = 6

// ErrInvalidCode is returned for codes of the wrong shape. Rejected
// before any network work happens.
var ErrInvalidCode = errors.New("room: invalid room code")

// NewCode generates a fresh room code from the restricted alphabet.
func NewCode() string {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails if the OS entropy source is broken.
		panic(fmt.Sprintf("room: reading random bytes: %v", err))
	}
	for i, b := range buf {
		buf[i] = CodeAlphabet[int(b)%len(CodeAlphabet)]
	}
	return string(buf)
}

// NormalizeCode uppercases and validates user-entered codes; entry is
// case-insensitive.
func NormalizeCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != CodeLength {
		return "", ErrInvalidCode
	}
	for _, r := range code {
		if !strings.ContainsRune(CodeAlphabet, r) {
			return "", ErrInvalidCode
		}
	}
	return code, nil
}
