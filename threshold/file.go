package threshold

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/fileio"
)

// FileVersion is the version tag written into threshold commitment, key,
// and partial decryption files.
const FileVersion uint32 = 1

// ErrSerialization is returned for truncated or version-mismatched
// threshold files.
var ErrSerialization = errors.New("threshold: malformed file")

// WriteCommitmentFile serializes cm as (cryptosystem fp, n, k, trustee
// index, coeffs, [encrypted share_i for i=0..n-1]); the entry at i equal to
// the trustee index is written as an empty placeholder.
func WriteCommitmentFile(w io.Writer, cs *group.Cryptosystem, n, k int, cm *Commitment) error {
	fp := cs.Fingerprint()
	if err := fileio.WriteUint32(w, FileVersion); err != nil {
		return err
	}
	if err := fileio.WriteFingerprint(w, fp); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(n)); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(k)); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(cm.trusteeIndex)); err != nil {
		return err
	}
	for _, a := range cm.coeffs {
		if err := fileio.WriteBigInt(w, a); err != nil {
			return err
		}
	}
	for i := 0; i < n; i++ {
		if cm.shares[i] == nil {
			if err := fileio.WriteUint32(w, 0); err != nil {
				return err
			}
			continue
		}
		if err := fileio.WriteUint32(w, 1); err != nil {
			return err
		}
		if err := elgamal.WriteCiphertextFile(w, cm.shares[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReadCommitmentFile loads a commitment file, verifying it is bound to cs,
// rejecting any public coefficient not in the order-q subgroup, and
// validating every present encrypted share's group membership (delegated
// to elgamal.ReadCiphertextFile).
func ReadCommitmentFile(r io.Reader, cs *group.Cryptosystem) (*Commitment, int, int, error) {
	version, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if version != FileVersion {
		return nil, 0, 0, fmt.Errorf("%w: unknown version %d", ErrSerialization, version)
	}
	fp, err := fileio.ReadFingerprint(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if fp != cs.Fingerprint() {
		return nil, 0, 0, elgamal.ErrIncompatibleCryptosystem
	}
	n32, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	k32, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	trusteeIdx32, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	n, k := int(n32), int(k32)

	coeffs := make([]*big.Int, k)
	for t := range coeffs {
		coeffs[t], err = fileio.ReadBigInt(r)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		if !cs.Contains(coeffs[t]) {
			return nil, 0, 0, elgamal.ErrInvalidPublicKey
		}
	}

	shares := make([]*elgamal.Ciphertext, n)
	for i := 0; i < n; i++ {
		present, err := fileio.ReadUint32(r)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		if present == 0 {
			continue
		}
		shares[i], err = elgamal.ReadCiphertextFile(r, cs)
		if err != nil {
			return nil, 0, 0, err
		}
	}

	cm := &Commitment{trusteeIndex: int(trusteeIdx32), coeffs: coeffs, shares: shares}
	return cm, n, k, nil
}

// WriteThresholdPublicKeyFile serializes tpk as (cryptosystem fp, n, k, Y,
// [Y_i]).
func WriteThresholdPublicKeyFile(w io.Writer, tpk *ThresholdPublicKey) error {
	fp := tpk.cs.Fingerprint()
	if err := fileio.WriteUint32(w, FileVersion); err != nil {
		return err
	}
	if err := fileio.WriteFingerprint(w, fp); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(tpk.n)); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(tpk.k)); err != nil {
		return err
	}
	if err := fileio.WriteBigInt(w, tpk.y); err != nil {
		return err
	}
	for _, y := range tpk.yi {
		if err := fileio.WriteBigInt(w, y); err != nil {
			return err
		}
	}
	return nil
}

// ReadThresholdPublicKeyFile loads a threshold public key file bound to cs,
// rejecting Y or any Y_i that is not in the order-q subgroup of Z*_p.
func ReadThresholdPublicKeyFile(r io.Reader, cs *group.Cryptosystem) (*ThresholdPublicKey, error) {
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
		return nil, elgamal.ErrIncompatibleCryptosystem
	}
	n32, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	k32, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	y, err := fileio.ReadBigInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if !cs.Contains(y) {
		return nil, elgamal.ErrInvalidPublicKey
	}
	n := int(n32)
	yi := make([]*big.Int, n)
	for i := range yi {
		yi[i], err = fileio.ReadBigInt(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		if !cs.Contains(yi[i]) {
			return nil, elgamal.ErrInvalidPublicKey
		}
	}
	return &ThresholdPublicKey{cs: cs, n: n, k: int(k32), y: y, yi: yi}, nil
}

// WriteThresholdPrivateKeyFile serializes tsk, extending the public file
// with (index, share).
func WriteThresholdPrivateKeyFile(w io.Writer, tsk *ThresholdPrivateKey) error {
	tpk := &ThresholdPublicKey{cs: tsk.cs, n: tsk.n, k: tsk.k, y: tsk.y, yi: tsk.yi}
	if err := WriteThresholdPublicKeyFile(w, tpk); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(tsk.index)); err != nil {
		return err
	}
	return fileio.WriteBigInt(w, tsk.share)
}

// ReadThresholdPrivateKeyFile loads a threshold private key file bound to
// cs.
func ReadThresholdPrivateKeyFile(r io.Reader, cs *group.Cryptosystem) (*ThresholdPrivateKey, error) {
	tpk, err := ReadThresholdPublicKeyFile(r, cs)
	if err != nil {
		return nil, err
	}
	idx32, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	share, err := fileio.ReadBigInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return &ThresholdPrivateKey{cs: cs, index: int(idx32), n: tpk.n, k: tpk.k, share: share, y: tpk.y, yi: tpk.yi}, nil
}

// WritePartialDecryptionFile serializes pd as (cryptosystem fp, threshold
// pub fp, ciphertext fp, trustee i, [(d_b, t1_b, t2_b, u_b)]).
func WritePartialDecryptionFile(w io.Writer, tpk *ThresholdPublicKey, ct *elgamal.Ciphertext, pd *PartialDecryption) error {
	if err := fileio.WriteUint32(w, FileVersion); err != nil {
		return err
	}
	if err := fileio.WriteFingerprint(w, tpk.cs.Fingerprint()); err != nil {
		return err
	}
	if err := fileio.WriteFingerprint(w, tpk.Fingerprint()); err != nil {
		return err
	}
	if err := fileio.WriteFingerprint(w, ct.Fingerprint()); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(pd.trusteeIndex)); err != nil {
		return err
	}
	if err := fileio.WriteUint32(w, uint32(len(pd.ds))); err != nil {
		return err
	}
	for i, d := range pd.ds {
		if err := fileio.WriteBigInt(w, d); err != nil {
			return err
		}
		pr := pd.proofs[i]
		if err := fileio.WriteBigInt(w, pr.T1); err != nil {
			return err
		}
		if err := fileio.WriteBigInt(w, pr.T2); err != nil {
			return err
		}
		if err := fileio.WriteBigInt(w, pr.U); err != nil {
			return err
		}
	}
	return nil
}

// ReadPartialDecryptionFile loads a partial decryption file, verifying it
// is bound to the given cryptosystem, threshold public key, and
// ciphertext fingerprints.
func ReadPartialDecryptionFile(r io.Reader, cs *group.Cryptosystem, tpk *ThresholdPublicKey, ct *elgamal.Ciphertext) (*PartialDecryption, error) {
	version, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if version != FileVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrSerialization, version)
	}
	csFP, err := fileio.ReadFingerprint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if csFP != cs.Fingerprint() {
		return nil, elgamal.ErrIncompatibleCryptosystem
	}
	tpkFP, err := fileio.ReadFingerprint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if tpkFP != tpk.Fingerprint() {
		return nil, fmt.Errorf("%w: threshold public key mismatch", ErrSerialization)
	}
	ctFP, err := fileio.ReadFingerprint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if ctFP != ct.Fingerprint() {
		return nil, fmt.Errorf("%w: ciphertext mismatch", ErrSerialization)
	}
	idx32, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	m, err := fileio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	ds := make([]*big.Int, m)
	proofs := make([]ChaumPedersenProof, m)
	for i := range ds {
		ds[i], err = fileio.ReadBigInt(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		t1, err := fileio.ReadBigInt(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		t2, err := fileio.ReadBigInt(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		u, err := fileio.ReadBigInt(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		proofs[i] = ChaumPedersenProof{T1: t1, T2: t2, U: u}
	}
	return &PartialDecryption{trusteeIndex: int(idx32), ds: ds, proofs: proofs}, nil
}
