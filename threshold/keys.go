package threshold

import (
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/randsrc"
	"github.com/openvote/crypto-core/internal/wire"
)

// ThresholdPublicKey is the combined public key Y = g^{sum a_{j,0}} mod p,
// together with the per-trustee verification values Y_i used to check
// partial decryption proofs.
type ThresholdPublicKey struct {
	cs   *group.Cryptosystem
	n, k int
	y    *big.Int
	yi   []*big.Int
}

// Cryptosystem returns the bound cryptosystem.
func (tpk *ThresholdPublicKey) Cryptosystem() *group.Cryptosystem { return tpk.cs }

// Y returns a copy of the combined public key element.
func (tpk *ThresholdPublicKey) Y() *big.Int { return new(big.Int).Set(tpk.y) }

// YFor returns a copy of trustee i's verification value Y_i.
func (tpk *ThresholdPublicKey) YFor(i int) *big.Int { return new(big.Int).Set(tpk.yi[i]) }

// N and K report the trustee count and recovery threshold.
func (tpk *ThresholdPublicKey) N() int { return tpk.n }
func (tpk *ThresholdPublicKey) K() int { return tpk.k }

// ToPublicKey exposes the threshold public key as a plain elgamal.PublicKey
// so callers can encrypt votes under it with the single-recipient
// EncryptBytes/EncryptText path; the block-wise encoding is identical
// regardless of whether the key holder is one party or a trustee quorum.
func (tpk *ThresholdPublicKey) ToPublicKey() (*elgamal.PublicKey, error) {
	return elgamal.NewPublicKey(tpk.cs, tpk.y)
}

// Fingerprint hashes (cryptosystem fp, n, k, Y, [Y_i]) so trustees can
// confirm they derived the same threshold key.
func (tpk *ThresholdPublicKey) Fingerprint() [32]byte {
	csFP := tpk.cs.Fingerprint()
	enc := wire.NewEncoder().
		PutFingerprint(csFP).
		PutUint64(uint64(tpk.n)).
		PutUint64(uint64(tpk.k)).
		PutBigInt(tpk.y)
	for _, y := range tpk.yi {
		enc.PutBigInt(y)
	}
	return enc.Sum256()
}

// ThresholdPrivateKey is trustee i's share s_i of the combined private key,
// plus the public verification data needed to prove partial decryptions
// correct.
type ThresholdPrivateKey struct {
	cs    *group.Cryptosystem
	index int
	n, k  int
	share *big.Int
	y     *big.Int
	yi    []*big.Int
}

// Index returns this trustee's index i.
func (tsk *ThresholdPrivateKey) Index() int { return tsk.index }

// Share returns a copy of the secret share s_i.
func (tsk *ThresholdPrivateKey) Share() *big.Int { return new(big.Int).Set(tsk.share) }

// ChaumPedersenProof proves log_g(Y_i) = log_gamma(d) = s_i without
// revealing s_i: the standard equality-of-discrete-logs Sigma protocol,
// rendered non-interactive with Fiat-Shamir over SHA-256.
type ChaumPedersenProof struct {
	T1, T2, U *big.Int
}

// PartialDecryption is trustee i's contribution to jointly decrypting a
// Ciphertext: one group element d_b = gamma_b^{s_i} per block, each paired
// with a ChaumPedersenProof.
type PartialDecryption struct {
	trusteeIndex int
	ds           []*big.Int
	proofs       []ChaumPedersenProof
}

// TrusteeIndex returns the trustee that produced this partial decryption.
func (pd *PartialDecryption) TrusteeIndex() int { return pd.trusteeIndex }

// Len returns the number of blocks covered.
func (pd *PartialDecryption) Len() int { return len(pd.ds) }

// D returns a copy of block i's partial decryption value d_i.
func (pd *PartialDecryption) D(i int) *big.Int { return new(big.Int).Set(pd.ds[i]) }

// Proof returns block i's Chaum-Pedersen proof.
func (pd *PartialDecryption) Proof(i int) ChaumPedersenProof { return pd.proofs[i] }

func challengeCP(cs *group.Cryptosystem, yi, gamma, d, t1, t2 *big.Int) *big.Int {
	enc := wire.NewEncoder().
		PutBigInt(cs.G()).
		PutBigInt(yi).
		PutBigInt(gamma).
		PutBigInt(d).
		PutBigInt(t1).
		PutBigInt(t2)
	return wire.HashToScalar(enc, cs.Q())
}

// GeneratePartialDecryption computes this trustee's partial decryption of
// ct, with one Chaum-Pedersen proof per block. Blocks are independent, so
// generation is parallelized the way spec.md §5 permits.
func (tsk *ThresholdPrivateKey) GeneratePartialDecryption(ct *elgamal.Ciphertext, src randsrc.Source) (*PartialDecryption, error) {
	if !tsk.cs.Equal(ct.Cryptosystem()) {
		return nil, elgamal.ErrIncompatibleCryptosystem
	}
	blocks := ct.Blocks()
	ds := make([]*big.Int, len(blocks))
	proofs := make([]ChaumPedersenProof, len(blocks))

	p, q, g := tsk.cs.P(), tsk.cs.Q(), tsk.cs.G()
	yi := tsk.yi[tsk.index]

	eg := new(errgroup.Group)
	for idx, blk := range blocks {
		idx, gamma := idx, blk.Gamma
		eg.Go(func() error {
			d := new(big.Int).Exp(gamma, tsk.share, p)

			w, err := randsrc.Sample(src, q)
			if err != nil {
				return err
			}
			t1 := new(big.Int).Exp(g, w, p)
			t2 := new(big.Int).Exp(gamma, w, p)
			c := challengeCP(tsk.cs, yi, gamma, d, t1, t2)
			u := new(big.Int).Mul(c, tsk.share)
			u.Add(u, w)
			u.Mod(u, q)

			ds[idx] = d
			proofs[idx] = ChaumPedersenProof{T1: t1, T2: t2, U: u}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &PartialDecryption{trusteeIndex: tsk.index, ds: ds, proofs: proofs}, nil
}

// verifyChaumPedersen checks g^u == t1 * Yi^c mod p and gamma^u == t2 * d^c
// mod p, where c is recomputed by hashing the public operands.
func verifyChaumPedersen(cs *group.Cryptosystem, yi, gamma, d *big.Int, proof ChaumPedersenProof) bool {
	p := cs.P()
	c := challengeCP(cs, yi, gamma, d, proof.T1, proof.T2)

	lhs1 := new(big.Int).Exp(cs.G(), proof.U, p)
	rhs1 := new(big.Int).Exp(yi, c, p)
	rhs1.Mul(rhs1, proof.T1)
	rhs1.Mod(rhs1, p)
	if lhs1.Cmp(rhs1) != 0 {
		return false
	}

	lhs2 := new(big.Int).Exp(gamma, proof.U, p)
	rhs2 := new(big.Int).Exp(d, c, p)
	rhs2.Mul(rhs2, proof.T2)
	rhs2.Mod(rhs2, p)
	return lhs2.Cmp(rhs2) == 0
}
