// Package auth secures Focus connections with a shared password: a
// challenge handshake proves both ends know it, then every frame is sealed
// with a per-session key.
package auth

import (
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"errors"
)

const (
	GeneratedPasswordLength = 16
	passwordAlphabet        = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	PBKDF2Iterations        = 100000
	PBKDF2Salt              = "keypipe-Focus-Key-v1"
	sessionContext          = "keypipe-Focus-Session-v1"
	KeySize                 = 32
)

var ErrEmptyPassword = errors.New("password cannot be empty")

// GeneratePassword returns a random base62 password.
func GeneratePassword() (string, error) {
	random := make([]byte, GeneratedPasswordLength)
	if _, err := rand.Read(random); err != nil {
		return "", err
	}
	pwd := make([]byte, GeneratedPasswordLength)
	for i, b := range random {
		pwd[i] = passwordAlphabet[int(b)%len(passwordAlphabet)]
	}
	return string(pwd), nil
}

// DeriveKey stretches a password to a KeySize key.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return pbkdf2.Key(sha256.New, password, []byte(PBKDF2Salt), PBKDF2Iterations, KeySize)
}

// SessionKey mixes both nonces into the long-term key.
func SessionKey(key, serverNonce, clientNonce []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write(serverNonce)
	h.Write(clientNonce)
	h.Write([]byte(sessionContext))
	return h.Sum(nil)
}
