// Package wire implements the canonical, length-prefixed big-endian
// serialization used throughout this module for fingerprinting and for
// Fiat-Shamir challenge derivation. Every fingerprint in this codebase is a
// SHA-256 digest over the byte stream produced by an Encoder; two
// independently produced encodings of equal values always produce identical
// bytes, which is what lets operators compare fingerprints across processes.
package wire

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
)

// Encoder accumulates a canonical byte stream. Each field is written as an
// 8-byte big-endian bit-length prefix followed by the field's bytes,
// left-zero-padded up to a whole number of bytes. Containers (objects with
// several fields, or lists) are the concatenation of their children's
// encodings in declared order.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// PutBigInt appends x as a bit-length-prefixed big-endian field.
func (e *Encoder) PutBigInt(x *big.Int) *Encoder {
	bitLen := uint64(x.BitLen())
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], bitLen)
	e.buf = append(e.buf, prefix[:]...)
	e.buf = append(e.buf, x.Bytes()...)
	return e
}

// PutUint64 appends v as a fixed 8-byte big-endian field, itself preceded by
// a 64-bit bit-length prefix (fixed at 64) for format uniformity.
func (e *Encoder) PutUint64(v uint64) *Encoder {
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], 64)
	e.buf = append(e.buf, prefix[:]...)
	var field [8]byte
	binary.BigEndian.PutUint64(field[:], v)
	e.buf = append(e.buf, field[:]...)
	return e
}

// PutBytes appends raw as a bit-length-prefixed field, where the bit-length
// is len(raw)*8 (no partial-byte content is permitted for byte fields).
func (e *Encoder) PutBytes(raw []byte) *Encoder {
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(raw))*8)
	e.buf = append(e.buf, prefix[:]...)
	e.buf = append(e.buf, raw...)
	return e
}

// PutFingerprint appends a child fingerprint as a byte field via PutBytes:
// a 256-bit length prefix followed by the 32 digest bytes.
func (e *Encoder) PutFingerprint(fp [32]byte) *Encoder {
	return e.PutBytes(fp[:])
}

// Bytes returns the accumulated canonical encoding.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Sum256 returns the SHA-256 fingerprint of the accumulated encoding.
func (e *Encoder) Sum256() [32]byte {
	return sha256.Sum256(e.buf)
}

// Fingerprint256 is a convenience wrapper that hashes a single Encoder's
// output; most callers build an Encoder once and call Sum256 directly, but
// this form reads well at one-shot call sites.
func Fingerprint256(e *Encoder) [32]byte {
	return e.Sum256()
}

// HashToScalar hashes the accumulated encoding with SHA-256 and reduces the
// digest modulo q, the standard Fiat-Shamir challenge derivation used by
// every Sigma-protocol proof in this module (Chaum-Pedersen partial
// decryption proofs, shuffle-proof challenge bits).
func HashToScalar(e *Encoder, q *big.Int) *big.Int {
	sum := e.Sum256()
	h := new(big.Int).SetBytes(sum[:])
	return h.Mod(h, q)
}

// ChallengeBits hashes the accumulated encoding with SHA-256 and returns the
// first t bits of the digest as a slice of 0/1 values, used by the
// cut-and-choose shuffle proof's challenge vector (t <= 256).
func ChallengeBits(e *Encoder, t int) []int {
	sum := e.Sum256()
	bits := make([]int, t)
	for i := 0; i < t; i++ {
		byteIdx := i / 8
		bitIdx := 7 - (i % 8)
		if byteIdx >= len(sum) {
			break
		}
		if sum[byteIdx]&(1<<uint(bitIdx)) != 0 {
			bits[i] = 1
		}
	}
	return bits
}
