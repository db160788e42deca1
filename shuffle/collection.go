// Package shuffle implements the re-encryption mixnet: an append-only
// CiphertextCollection under a fixed threshold public key Y, and a
// ShufflingProof that one collection is a permutation and re-encryption of
// another. The re-encryption arithmetic follows the same (gamma, delta)
// block shape elgamal.Ciphertext already uses; the proof is a Sako-Kilian
// cut-and-choose argument over intermediate re-encrypted collections M_ℓ,
// each opened either toward the input or toward the output collection.
package shuffle

import (
	"math/big"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/wire"
)

// CiphertextCollection is an ordered, append-only list of Ciphertexts all
// encrypted under the same threshold public key element Y and sharing a
// common per-ciphertext block count.
type CiphertextCollection struct {
	cs         *group.Cryptosystem
	y          *big.Int
	blockCount int
	items      []*elgamal.Ciphertext
}

// NewCollection creates an empty collection bound to cs and the combined
// public key element y.
func NewCollection(cs *group.Cryptosystem, y *big.Int) *CiphertextCollection {
	return &CiphertextCollection{cs: cs, y: new(big.Int).Set(y), blockCount: -1}
}

// Cryptosystem returns the bound cryptosystem.
func (c *CiphertextCollection) Cryptosystem() *group.Cryptosystem { return c.cs }

// Y returns a copy of the collection's public key element.
func (c *CiphertextCollection) Y() *big.Int { return new(big.Int).Set(c.y) }

// Len returns the number of ciphertexts in the collection.
func (c *CiphertextCollection) Len() int { return len(c.items) }

// Get returns the ciphertext at position i.
func (c *CiphertextCollection) Get(i int) *elgamal.Ciphertext { return c.items[i] }

// All returns every ciphertext, in order.
func (c *CiphertextCollection) All() []*elgamal.Ciphertext {
	out := make([]*elgamal.Ciphertext, len(c.items))
	copy(out, c.items)
	return out
}

// AddCiphertext appends ct, rejecting a cryptosystem mismatch or a block
// count that disagrees with every ciphertext already present.
func (c *CiphertextCollection) AddCiphertext(ct *elgamal.Ciphertext) error {
	if !c.cs.Equal(ct.Cryptosystem()) {
		return ErrIncompatibleCryptosystem
	}
	if c.blockCount == -1 {
		c.blockCount = ct.Len()
	} else if ct.Len() != c.blockCount {
		return ErrBlockCountMismatch
	}
	c.items = append(c.items, ct)
	return nil
}

// Fingerprint is the SHA-256 over (cryptosystem fingerprint, Y, [ciphertext
// fingerprints]) in declared order.
func (c *CiphertextCollection) Fingerprint() [32]byte {
	enc := wire.NewEncoder().
		PutFingerprint(c.cs.Fingerprint()).
		PutBigInt(c.y)
	for _, ct := range c.items {
		ctFP := ct.Fingerprint()
		enc.PutFingerprint(ctFP)
	}
	return enc.Sum256()
}
