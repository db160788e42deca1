// Package threshold implements Pedersen-style verifiable secret sharing
// over private channels (per-recipient ElGamal encryption of share
// polynomial evaluations), threshold key derivation, verifiable partial
// decryption, and Lagrange-interpolation combination, per spec.md §4.4-4.6.
// Partial decryptions carry a Chaum-Pedersen NIZK proving correctness
// without revealing the trustee's share, rendered non-interactive with
// Fiat-Shamir over SHA-256; the VSS commitment follows the standard
// Pedersen/Feldman construction of publishing g^{a_t} for each polynomial
// coefficient so recipients can check their share against it without
// learning the polynomial itself.
package threshold

import (
	"math/big"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/wire"
)

// Commitment is trustee j's contribution to a distributed key generation
// round: public coefficients A_{j,0..k-1} = g^{a_t} mod p, plus, for every
// other trustee i, an ElGamal ciphertext (under trustee i's public key)
// encoding f_j(i+1) mod q. The entry at index j itself is nil: that share
// is never transmitted, only retained by trustee j (see GenerateCommitment).
type Commitment struct {
	trusteeIndex int
	coeffs       []*big.Int
	shares       []*elgamal.Ciphertext // len n, shares[trusteeIndex] == nil
}

// TrusteeIndex returns the index of the trustee that produced this
// commitment.
func (c *Commitment) TrusteeIndex() int { return c.trusteeIndex }

// Coeffs returns the public coefficients A_{j,0..k-1}.
func (c *Commitment) Coeffs() []*big.Int {
	out := make([]*big.Int, len(c.coeffs))
	for i, v := range c.coeffs {
		out[i] = new(big.Int).Set(v)
	}
	return out
}

// ShareFor returns the encrypted share ciphertext directed at recipient i,
// or nil if i is this commitment's own trustee index.
func (c *Commitment) ShareFor(i int) *elgamal.Ciphertext {
	return c.shares[i]
}

// evalPoly evaluates f(x) = sum(coeffs[t] * x^t) mod q using Horner's
// method.
func evalPoly(coeffs []*big.Int, x, q *big.Int) *big.Int {
	result := new(big.Int)
	for t := len(coeffs) - 1; t >= 0; t-- {
		result.Mul(result, x)
		result.Add(result, coeffs[t])
		result.Mod(result, q)
	}
	return result
}

// verifyShareAgainstCoeffs checks g^share == Π_t A_t^{(x)^t} mod p, the
// core VSS verification equation: a recipient can confirm its share is
// consistent with the sender's public coefficients without trusting the
// sender.
func verifyShareAgainstCoeffs(cs *group.Cryptosystem, coeffs []*big.Int, x, share *big.Int) bool {
	p, q := cs.P(), cs.Q()
	lhs := new(big.Int).Exp(cs.G(), new(big.Int).Mod(share, q), p)

	rhs := big.NewInt(1)
	xPow := big.NewInt(1)
	for _, A := range coeffs {
		term := new(big.Int).Exp(A, xPow, p)
		rhs.Mul(rhs, term)
		rhs.Mod(rhs, p)
		xPow.Mul(xPow, x)
	}
	return lhs.Cmp(rhs) == 0
}

// encodeShare renders s (an integer mod q) as a fixed-width big-endian byte
// string sized to q's byte length, so every trustee's encrypted share has
// the same block count regardless of s's magnitude.
func encodeShare(s, q *big.Int) []byte {
	width := (q.BitLen() + 7) / 8
	buf := make([]byte, width)
	s.FillBytes(buf)
	return buf
}

func decodeShare(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// fingerprint is the canonical serialization used by
// SetUp.GetFingerprint: (trustee index, coeffs,
// per-recipient share fingerprints in order, with a sentinel for the
// self-placeholder).
func (c *Commitment) fingerprint() [32]byte {
	enc := wire.NewEncoder().PutUint64(uint64(c.trusteeIndex))
	for _, A := range c.coeffs {
		enc.PutBigInt(A)
	}
	for _, sh := range c.shares {
		if sh == nil {
			enc.PutBytes([]byte("self"))
			continue
		}
		shFP := sh.Fingerprint()
		enc.PutFingerprint(shFP)
	}
	return enc.Sum256()
}
