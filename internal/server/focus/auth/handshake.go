package auth

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/Alia5/keypipe/apitypes"
)

const (
	// Magic opens every authenticated connection.
	Magic       = "kpF1\x00"
	NonceSize   = 32
	accepted    = "OK\x00"
	authContext = "keypipe-Focus-Auth-v1"
)

// Session is the outcome of a successful handshake.
type Session struct {
	ClientNonce []byte
	ServerNonce []byte
}

// Key returns the session key for the long-term key.
func (s Session) Key(key []byte) []byte {
	return SessionKey(key, s.ServerNonce, s.ClientNonce)
}

func proof(key, clientNonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(authContext))
	_, _ = mac.Write(clientNonce)
	return mac.Sum(nil)
}

func nonce() ([]byte, error) {
	n := make([]byte, NonceSize)
	if _, err := rand.Read(n); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return n, nil
}

// Client sends Magic, a fresh nonce and its proof, then reads the server's
// nonce. A rejection carrying an ApiError is returned as that error.
func Client(r *bufio.Reader, w io.Writer, key []byte) (Session, error) {
	if len(key) == 0 {
		return Session{}, fmt.Errorf("handshake: missing key")
	}
	cn, err := nonce()
	if err != nil {
		return Session{}, err
	}
	msg := make([]byte, 0, len(Magic)+NonceSize+sha256.Size)
	msg = append(msg, Magic...)
	msg = append(msg, cn...)
	msg = append(msg, proof(key, cn)...)
	if _, err := w.Write(msg); err != nil {
		return Session{}, fmt.Errorf("write handshake: %w", err)
	}

	prefix := make([]byte, len(accepted))
	if _, err := io.ReadFull(r, prefix); err != nil {
		if err == io.EOF {
			return Session{}, apitypes.ErrUnauthorized("connection closed during handshake")
		}
		return Session{}, fmt.Errorf("read handshake response: %w", err)
	}
	if string(prefix) != accepted {
		rest, _ := io.ReadAll(r)
		line := string(prefix) + string(rest)
		if p, ok := apitypes.ParseProblem(line); ok {
			return Session{}, p
		}
		return Session{}, fmt.Errorf("invalid handshake response: %q", line)
	}

	sn := make([]byte, NonceSize)
	if _, err := io.ReadFull(r, sn); err != nil {
		return Session{}, fmt.Errorf("read server nonce: %w", err)
	}
	return Session{ClientNonce: cn, ServerNonce: sn}, nil
}

// Server consumes the client's handshake, checks its proof and answers with
// "OK\x00" and a fresh nonce. A wrong proof yields a 401 ApiError and
// nothing is written.
func Server(r *bufio.Reader, w io.Writer, key []byte) (Session, error) {
	if len(key) == 0 {
		return Session{}, fmt.Errorf("handshake: missing key")
	}
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return Session{}, fmt.Errorf("read handshake magic: %w", err)
	}
	if string(magic) != Magic {
		return Session{}, apitypes.ErrUnauthorized("authentication required")
	}
	cn := make([]byte, NonceSize)
	if _, err := io.ReadFull(r, cn); err != nil {
		return Session{}, fmt.Errorf("read client nonce: %w", err)
	}
	got := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, got); err != nil {
		return Session{}, fmt.Errorf("read client proof: %w", err)
	}
	if !hmac.Equal(got, proof(key, cn)) {
		return Session{}, apitypes.ErrUnauthorized("invalid password")
	}

	sn, err := nonce()
	if err != nil {
		return Session{}, err
	}
	if _, err := w.Write(append([]byte(accepted), sn...)); err != nil {
		return Session{}, fmt.Errorf("write handshake response: %w", err)
	}
	return Session{ClientNonce: cn, ServerNonce: sn}, nil
}
