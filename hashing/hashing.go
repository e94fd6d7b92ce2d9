// Package hashing provides the pluggable password hash functions used
// during credential verification.
package hashing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// Func turns a login secret into the value compared against the
// stored password field. It must be deterministic: verification is a
// byte-for-byte comparison, not a salted re-hash.
type Func func(secret string) string

// Identity returns the secret unchanged. It exists for schemes where
// credentials arrive already hashed; as a password hash it is
// deliberately weak, and the auth service warns while it is in use.
func Identity(secret string) string {
	return secret
}

// HMACSHA256 keys an HMAC over the secret and hex-encodes the digest.
func HMACSHA256(key string) Func {
	return func(secret string) string {
		mac := hmac.New(sha256.New, []byte(key))
		mac.Write([]byte(secret))
		return hex.EncodeToString(mac.Sum(nil))
	}
}

// Argon2id derives a hex-encoded argon2id digest using the given
// fixed salt. The salt is shared across users to keep the function
// deterministic; treat it as a site-wide pepper.
func Argon2id(salt []byte) Func {
	return func(secret string) string {
		digest := argon2.IDKey([]byte(secret), salt, 1, 64*1024, 4, 32)
		return hex.EncodeToString(digest)
	}
}
