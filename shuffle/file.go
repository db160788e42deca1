package shuffle

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/fileio"
)

// FileVersion is the version tag written into collection and shuffle-proof
// files.
const FileVersion uint32 = 1

// ErrSerialization is returned for truncated or malformed shuffle files.
var ErrSerialization = errors.New("shuffle: malformed file")

// WriteCollectionFile serializes c as (cryptosystem fp, Y, n,
// [ciphertexts]).
func WriteCollectionFile(w io.Writer, c *CiphertextCollection) error {
	if err := fileio.WriteUint32(w, FileVersion); err != nil {
		return err
	}
	if err := fileio.WriteFingerprint(w, c.cs.Fingerprint()); err != nil {
		return err
	}
	if err := fileio.WriteBigInt(w, c.y); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(len(c.items))); err != nil {
		return err
	}
	for _, ct := range c.items {
		if err := elgamal.WriteCiphertextFile(w, ct); err != nil {
			return err
		}
	}
	return nil
}

// ReadCollectionFile loads a collection file bound to cs.
func ReadCollectionFile(r io.Reader, cs *group.Cryptosystem) (*CiphertextCollection, error) {
	version, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if version != FileVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrSerialization, version)
	}
	fp, err := fileio.ReadFingerprint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if fp != cs.Fingerprint() {
		return nil, ErrIncompatibleCryptosystem
	}
	y, err := fileio.ReadBigInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	n, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	c := NewCollection(cs, y)
	for i := uint32(0); i < n; i++ {
		ct, err := elgamal.ReadCiphertextFile(r, cs)
		if err != nil {
			return nil, err
		}
		if err := c.AddCiphertext(ct); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func writePerm(w io.Writer, perm []int) error {
	if err := fileio.WriteUint32(w, uint32(len(perm))); err != nil {
		return err
	}
	for _, v := range perm {
		if err := fileio.WriteUint32(w, uint32(v)); err != nil {
			return err
		}
	}
	return nil
}

func readPerm(r io.Reader) ([]int, error) {
	n, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := range out {
		v, err := fileio.ReadUint32(r)
		if err != nil {
			return nil, err
		}
		out[i] = int(v)
	}
	return out, nil
}

func writeRerand(w io.Writer, rerand [][]*big.Int) error {
	n := len(rerand)
	blockCount := 0
	if n > 0 {
		blockCount = len(rerand[0])
	}
	if err := fileio.WriteUint32(w, uint32(n)); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(blockCount)); err != nil {
		return err
	}
	for _, row := range rerand {
		for _, v := range row {
			if err := fileio.WriteBigInt(w, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func readRerand(r io.Reader) ([][]*big.Int, error) {
	n, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	blockCount, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	out := make([][]*big.Int, n)
	for i := range out {
		out[i] = make([]*big.Int, blockCount)
		for b := range out[i] {
			v, err := fileio.ReadBigInt(r)
			if err != nil {
				return nil, err
			}
			out[i][b] = v
		}
	}
	return out, nil
}

// WriteShuffleProofFile serializes sp as (input fp, output fp, Y,
// [branch] per challenge position); each branch writes its bit, its M_ℓ
// fingerprint, and its bit-specific reveal (perm+rerand for bit 0,
// tau+rerandPrime plus the full M_ℓ collection for bit 1).
func WriteShuffleProofFile(w io.Writer, sp *ShufflingProof) error {
	if err := fileio.WriteUint32(w, FileVersion); err != nil {
		return err
	}
	if err := fileio.WriteFingerprint(w, sp.InputFingerprint); err != nil {
		return err
	}
	if err := fileio.WriteFingerprint(w, sp.OutputFingerprint); err != nil {
		return err
	}
	if err := fileio.WriteBigInt(w, sp.Y); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(len(sp.Branches))); err != nil {
		return err
	}
	for _, br := range sp.Branches {
		if err := fileio.WriteUint32(w, uint32(br.Bit)); err != nil {
			return err
		}
		if err := fileio.WriteFingerprint(w, br.MFingerprint); err != nil {
			return err
		}
		if br.Bit == 0 {
			if err := writePerm(w, br.Perm); err != nil {
				return err
			}
			if err := writeRerand(w, br.Rerand); err != nil {
				return err
			}
			continue
		}
		if err := writePerm(w, br.Tau); err != nil {
			return err
		}
		if err := writeRerand(w, br.RerandPrime); err != nil {
			return err
		}
		if err := WriteCollectionFile(w, br.M); err != nil {
			return err
		}
	}
	return nil
}

// ReadShuffleProofFile loads a shuffle proof file bound to cs.
func ReadShuffleProofFile(r io.Reader, cs *group.Cryptosystem) (*ShufflingProof, error) {
	version, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if version != FileVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrSerialization, version)
	}
	inputFP, err := fileio.ReadFingerprint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	outputFP, err := fileio.ReadFingerprint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	y, err := fileio.ReadBigInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	numBranches, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	branches := make([]Branch, numBranches)
	for l := range branches {
		bit, err := fileio.ReadUint32(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		mFP, err := fileio.ReadFingerprint(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		if bit == 0 {
			perm, err := readPerm(r)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
			}
			rerand, err := readRerand(r)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
			}
			branches[l] = Branch{Bit: 0, MFingerprint: mFP, Perm: perm, Rerand: rerand}
			continue
		}
		tau, err := readPerm(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		rerandPrime, err := readRerand(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		m, err := ReadCollectionFile(r, cs)
		if err != nil {
			return nil, err
		}
		branches[l] = Branch{Bit: 1, MFingerprint: mFP, Tau: tau, RerandPrime: rerandPrime, M: m}
	}

	return &ShufflingProof{
		InputFingerprint:  inputFP,
		OutputFingerprint: outputFP,
		Y:                 y,
		Branches:          branches,
	}, nil
}
