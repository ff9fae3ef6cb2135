package auth

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// Role tells the two ends of a sealed connection apart. Each role seals
// with its own nonce prefix so the directions never share a nonce.
type Role uint32

const (
	RoleClient Role = 1
	RoleServer Role = 2
)

func (r Role) peer() Role {
	if r == RoleClient {
		return RoleServer
	}
	return RoleClient
}

// MaxFrameSize bounds one sealed frame on the wire.
const MaxFrameSize = 64 * 1024

var ErrReplay = errors.New("sealed frame out of sequence")

// Conn seals every Write into one frame: a big-endian uint32 length, the
// 12-byte nonce (role, counter) and the ciphertext.
type Conn struct {
	net.Conn
	aead cipher.AEAD
	role Role

	wmu     sync.Mutex
	sendCtr uint64

	rmu     sync.Mutex
	recvCtr uint64
	pending bytes.Buffer
}

// Seal wraps conn for the given role.
func Seal(conn net.Conn, sessionKey []byte, role Role) (*Conn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn, aead: aead, role: role}, nil
}

func makeNonce(r Role, ctr uint64) []byte {
	n := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint32(n[:4], uint32(r))
	binary.BigEndian.PutUint64(n[4:], ctr)
	return n
}

func (c *Conn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	written := 0
	for len(p) > 0 {
		chunk := p
		if limit := MaxFrameSize - chacha20poly1305.NonceSize - c.aead.Overhead(); len(chunk) > limit {
			chunk = chunk[:limit]
		}
		nonce := makeNonce(c.role, c.sendCtr)
		c.sendCtr++

		frame := make([]byte, 4, 4+len(nonce)+len(chunk)+c.aead.Overhead())
		frame = append(frame, nonce...)
		frame = c.aead.Seal(frame, nonce, chunk, nil)
		binary.BigEndian.PutUint32(frame[:4], uint32(len(frame)-4))
		if _, err := c.Conn.Write(frame); err != nil {
			return written, err
		}
		written += len(chunk)
		p = p[len(chunk):]
	}
	return written, nil
}

func (c *Conn) Read(p []byte) (int, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	for c.pending.Len() == 0 {
		var hdr [4]byte
		if _, err := io.ReadFull(c.Conn, hdr[:]); err != nil {
			return 0, err
		}
		length := binary.BigEndian.Uint32(hdr[:])
		if length > MaxFrameSize || length < chacha20poly1305.NonceSize {
			return 0, fmt.Errorf("sealed frame of %d bytes", length)
		}
		frame := make([]byte, length)
		if _, err := io.ReadFull(c.Conn, frame); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		nonce := frame[:chacha20poly1305.NonceSize]
		if !bytes.Equal(nonce, makeNonce(c.role.peer(), c.recvCtr)) {
			return 0, ErrReplay
		}
		pt, err := c.aead.Open(nil, nonce, frame[len(nonce):], nil)
		if err != nil {
			return 0, err
		}
		c.recvCtr++
		c.pending.Write(pt)
	}
	return c.pending.Read(p)
}
