package elgamal

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/fileio"
)

// FileVersion is the version tag written into key and ciphertext files.
const FileVersion uint32 = 1

// ErrSerialization is returned when a key or ciphertext file is truncated,
// version-mismatched, or carries a group element that fails verification.
var ErrSerialization = errors.New("elgamal: malformed file")

// WritePublicKeyFile serializes pk as (version, cryptosystem fp, h).
func WritePublicKeyFile(w io.Writer, pk *PublicKey) error {
	fp := pk.cs.Fingerprint()
	if err := fileio.WriteUint32(w, FileVersion); err != nil {
		return err
	}
	if err := fileio.WriteFingerprint(w, fp); err != nil {
		return err
	}
	return fileio.WriteBigInt(w, pk.h)
}

// ReadPublicKeyFile loads a public key file, verifying that its
// cryptosystem fingerprint matches cs and that h is a subgroup member.
func ReadPublicKeyFile(r io.Reader, cs *group.Cryptosystem) (*PublicKey, error) {
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
	h, err := fileio.ReadBigInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return NewPublicKey(cs, h)
}

// WritePrivateKeyFile serializes sk as (version, cryptosystem fp, x).
func WritePrivateKeyFile(w io.Writer, sk *PrivateKey) error {
	fp := sk.cs.Fingerprint()
	if err := fileio.WriteUint32(w, FileVersion); err != nil {
		return err
	}
	if err := fileio.WriteFingerprint(w, fp); err != nil {
		return err
	}
	return fileio.WriteBigInt(w, sk.x)
}

// ReadPrivateKeyFile loads a private key file and derives its PublicKey.
func ReadPrivateKeyFile(r io.Reader, cs *group.Cryptosystem) (*PrivateKey, error) {
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
	x, err := fileio.ReadBigInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	pkH := new(big.Int).Exp(cs.G(), x, cs.P())
	pk, err := NewPublicKey(cs, pkH)
	if err != nil {
		return nil, err
	}
	return NewPrivateKey(cs, x, pk)
}

// WriteCiphertextFile serializes ct as (version, cryptosystem fp, bit
// length, block count, [(gamma_i, delta_i)]).
func WriteCiphertextFile(w io.Writer, ct *Ciphertext) error {
	fp := ct.cs.Fingerprint()
	if err := fileio.WriteUint32(w, FileVersion); err != nil {
		return err
	}
	if err := fileio.WriteFingerprint(w, fp); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(ct.bitLen)); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(len(ct.blocks))); err != nil {
		return err
	}
	for _, b := range ct.blocks {
		if err := fileio.WriteBigInt(w, b.Gamma); err != nil {
			return err
		}
		if err := fileio.WriteBigInt(w, b.Delta); err != nil {
			return err
		}
	}
	return nil
}

// ReadCiphertextFile loads a ciphertext file, verifying it is bound to cs
// and that the block count matches the recorded bit-length.
func ReadCiphertextFile(r io.Reader, cs *group.Cryptosystem) (*Ciphertext, error) {
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
	bitLen32, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	m, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	blocks := make([]Block, m)
	for i := range blocks {
		gamma, err := fileio.ReadBigInt(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		delta, err := fileio.ReadBigInt(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		blocks[i] = Block{Gamma: gamma, Delta: delta}
	}
	return NewCiphertext(cs, int(bitLen32), blocks)
}
