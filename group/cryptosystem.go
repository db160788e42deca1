// Package group implements the safe-prime multiplicative group that every
// cryptographic object in this module is bound to: a Cryptosystem (p, q, g)
// with p = 2q+1 and g a generator of the order-q subgroup of Z*_p. All
// group arithmetic is math/big modular exponentiation mod p.
package group

import (
	cryptorand "crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/openvote/crypto-core/internal/randsrc"
	"github.com/openvote/crypto-core/internal/wire"
)

// MinBits is the minimum accepted bit-length for freshly generated
// parameters. Loaded parameter files below this size are still verified
// (and rejected via ErrWeakParameters) rather than silently accepted.
const MinBits = 1024

// MillerRabinRounds is the number of probabilistic-primality rounds applied
// to p and q, per spec.md's "Miller-Rabin >= 64 rounds" requirement.
const MillerRabinRounds = 64

var (
	// ErrWeakParameters is returned when nbits is below MinBits, or when a
	// loaded parameter set otherwise fails the group's own strength checks.
	ErrWeakParameters = errors.New("group: parameters are weaker than the configured minimum")
	// ErrInvalidParameters is returned when (p, q, g) fail the structural
	// checks in Verify (primality, p = 2q+1, g's order).
	ErrInvalidParameters = errors.New("group: parameters are not a valid safe-prime group")
)

// Cryptosystem is the immutable (nbits, p, q, g) parameter tuple that every
// key and ciphertext in this module is bound to. Two Cryptosystem values are
// considered the same cryptosystem iff their fingerprints match.
type Cryptosystem struct {
	nbits int
	p, q  *big.Int
	g     *big.Int
	fp    [32]byte
}

// GenerateParameters creates fresh (p, q, g) of the given bit-length: p is a
// safe prime (p = 2q+1, both prime), and g generates the order-q subgroup.
// nbits below MinBits is rejected with ErrWeakParameters.
func GenerateParameters(nbits int, src randsrc.Source) (*Cryptosystem, error) {
	if nbits < MinBits {
		return nil, ErrWeakParameters
	}
	if src == nil {
		src = randsrc.Default
	}

	one := big.NewInt(1)
	two := big.NewInt(2)

	var p, q *big.Int
	for {
		var err error
		q, err = cryptorand.Prime(src, nbits-1)
		if err != nil {
			return nil, randsrc.ErrInsufficientRandomness
		}
		p = new(big.Int).Mul(two, q)
		p.Add(p, one)
		if p.ProbablyPrime(MillerRabinRounds) {
			break
		}
	}

	g, err := findGenerator(src, p, q)
	if err != nil {
		return nil, err
	}

	return newVerified(nbits, p, q, g)
}

// NewFromParams constructs a Cryptosystem from explicit (p, q, g), running
// the full §4.1 verification. This is the path used when loading a
// .pvcryptosys file.
func NewFromParams(nbits int, p, q, g *big.Int) (*Cryptosystem, error) {
	return newVerified(nbits, p, q, g)
}

func newVerified(nbits int, p, q, g *big.Int) (*Cryptosystem, error) {
	if nbits < MinBits {
		return nil, ErrWeakParameters
	}
	if !q.ProbablyPrime(MillerRabinRounds) || !p.ProbablyPrime(MillerRabinRounds) {
		return nil, fmt.Errorf("%w: p or q is not prime", ErrInvalidParameters)
	}
	check := new(big.Int).Mul(q, big.NewInt(2))
	check.Add(check, big.NewInt(1))
	if check.Cmp(p) != 0 {
		return nil, fmt.Errorf("%w: p != 2q+1", ErrInvalidParameters)
	}
	if g.Cmp(big.NewInt(1)) <= 0 || g.Cmp(p) >= 0 {
		return nil, fmt.Errorf("%w: g out of range", ErrInvalidParameters)
	}
	gq := new(big.Int).Exp(g, q, p)
	if gq.Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("%w: g^q != 1 mod p", ErrInvalidParameters)
	}

	cs := &Cryptosystem{
		nbits: nbits,
		p:     new(big.Int).Set(p),
		q:     new(big.Int).Set(q),
		g:     new(big.Int).Set(g),
	}
	cs.fp = cs.computeFingerprint()
	return cs, nil
}

// findGenerator samples h in [2, p-2] and squares it; any non-identity
// quadratic residue mod p generates the order-q subgroup when p = 2q+1.
func findGenerator(src randsrc.Source, p, q *big.Int) (*big.Int, error) {
	pMinusThree := new(big.Int).Sub(p, big.NewInt(3))
	for {
		h, err := randsrc.SampleRange(src, pMinusThree)
		if err != nil {
			return nil, err
		}
		h.Add(h, big.NewInt(2)) // h in [2, p-2]
		g := new(big.Int).Exp(h, big.NewInt(2), p)
		if g.Cmp(big.NewInt(1)) == 0 {
			continue
		}
		gq := new(big.Int).Exp(g, q, p)
		if gq.Cmp(big.NewInt(1)) == 0 {
			return g, nil
		}
	}
}

// Nbits returns the configured bit-length of p.
func (cs *Cryptosystem) Nbits() int { return cs.nbits }

// P returns a copy of the modulus p.
func (cs *Cryptosystem) P() *big.Int { return new(big.Int).Set(cs.p) }

// Q returns a copy of the subgroup order q.
func (cs *Cryptosystem) Q() *big.Int { return new(big.Int).Set(cs.q) }

// G returns a copy of the subgroup generator g.
func (cs *Cryptosystem) G() *big.Int { return new(big.Int).Set(cs.g) }

// MaxBlockBits is the number of message bits packed per ElGamal block
// (nbits - 1, per spec.md §4.2).
func (cs *Cryptosystem) MaxBlockBits() int { return cs.nbits - 1 }

// Fingerprint returns the SHA-256 fingerprint of (nbits, p, q, g).
func (cs *Cryptosystem) Fingerprint() [32]byte { return cs.fp }

// Equal reports whether two Cryptosystem values share a fingerprint.
func (cs *Cryptosystem) Equal(other *Cryptosystem) bool {
	if other == nil {
		return false
	}
	return cs.fp == other.fp
}

// Contains reports whether h is a valid element of the order-q subgroup:
// 1 <= h < p and h^q == 1 (mod p). Every public element handled by this
// module (keys, ciphertext blocks, commitments) must satisfy this.
func (cs *Cryptosystem) Contains(h *big.Int) bool {
	if h.Sign() <= 0 || h.Cmp(cs.p) >= 0 {
		return false
	}
	r := new(big.Int).Exp(h, cs.q, cs.p)
	return r.Cmp(big.NewInt(1)) == 0
}

// NewExponent samples a uniform scalar in [1, q-1], the sampling space used
// for private keys, polynomial coefficients, and per-ciphertext randomizers.
func (cs *Cryptosystem) NewExponent(src randsrc.Source) (*big.Int, error) {
	if src == nil {
		src = randsrc.Default
	}
	return randsrc.Sample(src, cs.q)
}

func (cs *Cryptosystem) computeFingerprint() [32]byte {
	enc := wire.NewEncoder().
		PutUint64(uint64(cs.nbits)).
		PutBigInt(cs.p).
		PutBigInt(cs.q).
		PutBigInt(cs.g)
	return enc.Sum256()
}
