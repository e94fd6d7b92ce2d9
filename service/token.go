package service

import (
	"crypto/rand"
	"fmt"
)

// URL-safe alphabet for generated tokens. 64 symbols, so each random
// byte maps to one character without modulo bias.
const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// generateToken returns a random string of exactly length characters
// drawn from crypto/rand. Uniqueness is not enforced: at lengths of
// 24 and above the collision probability is negligible.
func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
