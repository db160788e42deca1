package group

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/openvote/crypto-core/internal/fileio"
)

// FileVersion is the version tag written into every .pvcryptosys file this
// module produces. Loaders reject files carrying an unknown version.
const FileVersion uint32 = 1

// ErrSerialization is returned when a parameter file is truncated or
// structurally malformed.
var ErrSerialization = errors.New("group: malformed cryptosystem file")

// WriteParameterFile serializes cs to w as (version, nbits, p, q, g).
// Loading re-verifies every field (see ReadParameterFile), so this format
// carries no redundant integrity check of its own.
func WriteParameterFile(w io.Writer, cs *Cryptosystem) error {
	if err := fileio.WriteUint32(w, FileVersion); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(cs.nbits)); err != nil {
		return err
	}
	for _, v := range []*big.Int{cs.p, cs.q, cs.g} {
		if err := fileio.WriteBigInt(w, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadParameterFile loads a .pvcryptosys file and fully re-verifies its
// parameters, per spec.md §4.1 and §6.
func ReadParameterFile(r io.Reader) (*Cryptosystem, error) {
	version, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if version != FileVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrSerialization, version)
	}
	nbits32, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	p, err := fileio.ReadBigInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	q, err := fileio.ReadBigInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	g, err := fileio.ReadBigInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return NewFromParams(int(nbits32), p, q, g)
}

// MarshalParameterFile is a convenience wrapper returning the serialized
// bytes directly, for callers embedding a cryptosystem in another format
// (e.g. an XML-tagged election manifest) rather than writing to a file.
func MarshalParameterFile(cs *Cryptosystem) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteParameterFile(&buf, cs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
