// Package fileio implements the shared binary primitives used by every
// on-disk file format in this module (.pvcryptosys, key files, ciphertext
// files, threshold commitment/key files, shuffle-proof files): big.Int
// values as a 4-byte big-endian length prefix followed by bytes, and fixed
// 32-byte fingerprints.
package fileio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// ErrTruncated is returned when a file ends before an expected field.
var ErrTruncated = errors.New("fileio: truncated or malformed file")

// WriteUint32 writes v as 4 big-endian bytes.
func WriteUint32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.BigEndian, v)
}

// ReadUint32 reads 4 big-endian bytes.
func ReadUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return v, nil
}

// WriteBigInt writes v as a 4-byte big-endian length prefix followed by its
// bytes.
func WriteBigInt(w io.Writer, v *big.Int) error {
	b := v.Bytes()
	if err := WriteUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadBigInt reads a length-prefixed big.Int.
func ReadBigInt(r io.Reader) (*big.Int, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return new(big.Int).SetBytes(buf), nil
}

// WriteFingerprint writes a fixed 32-byte fingerprint verbatim.
func WriteFingerprint(w io.Writer, fp [32]byte) error {
	_, err := w.Write(fp[:])
	return err
}

// ReadFingerprint reads a fixed 32-byte fingerprint.
func ReadFingerprint(r io.Reader) ([32]byte, error) {
	var fp [32]byte
	if _, err := io.ReadFull(r, fp[:]); err != nil {
		return fp, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return fp, nil
}

// WriteBytes writes a length-prefixed raw byte slice.
func WriteBytes(w io.Writer, b []byte) error {
	if err := WriteUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadBytes reads a length-prefixed raw byte slice.
func ReadBytes(r io.Reader) ([]byte, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return buf, nil
}
