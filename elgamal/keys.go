// Package elgamal implements single-recipient ElGamal keys and ciphertexts
// over a group.Cryptosystem: a PublicKey/PrivateKey pair bound to the
// group's generator, with encryption and decryption generalized to
// arbitrary message lengths via block-wise encoding instead of a single
// bounded message element.
package elgamal

import (
	"math/big"

	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/randsrc"
)

// PublicKey is an ElGamal public key h = g^x mod p bound to a Cryptosystem.
// The Cryptosystem reference is non-owning: equality and compatibility
// checks compare fingerprints, not pointers, per spec.md §9's guidance on
// cyclic back-references.
type PublicKey struct {
	cs *group.Cryptosystem
	h  *big.Int
}

// PrivateKey is the matching secret exponent x in [1, q-1].
type PrivateKey struct {
	cs *group.Cryptosystem
	x  *big.Int
	pk *PublicKey
}

// KeyPair bundles a PublicKey and its matching PrivateKey.
type KeyPair struct {
	Public  *PublicKey
	Private *PrivateKey
}

// GenerateKeyPair draws x uniformly from [1, q-1] and computes h = g^x mod
// p. This is the Go-side equivalent of Cryptosystem.new_key_pair(); it lives
// here rather than as a group.Cryptosystem method so that group never needs
// to import elgamal.
func GenerateKeyPair(cs *group.Cryptosystem, src randsrc.Source) (*KeyPair, error) {
	x, err := cs.NewExponent(src)
	if err != nil {
		return nil, err
	}
	h := new(big.Int).Exp(cs.G(), x, cs.P())
	pub := &PublicKey{cs: cs, h: h}
	priv := &PrivateKey{cs: cs, x: x, pk: pub}
	return &KeyPair{Public: pub, Private: priv}, nil
}

// NewPublicKey wraps an element h already known to be in the cryptosystem's
// subgroup (e.g. a threshold public key, or a key loaded from file and
// verified by the caller).
func NewPublicKey(cs *group.Cryptosystem, h *big.Int) (*PublicKey, error) {
	if !cs.Contains(h) {
		return nil, ErrInvalidPublicKey
	}
	return &PublicKey{cs: cs, h: new(big.Int).Set(h)}, nil
}

// Cryptosystem returns the bound cryptosystem.
func (pk *PublicKey) Cryptosystem() *group.Cryptosystem { return pk.cs }

// H returns a copy of the public element h.
func (pk *PublicKey) H() *big.Int { return new(big.Int).Set(pk.h) }

// NewPrivateKey wraps a secret scalar x in [1, q-1] together with its public
// counterpart, e.g. when loading a private key file.
func NewPrivateKey(cs *group.Cryptosystem, x *big.Int, pk *PublicKey) (*PrivateKey, error) {
	q := cs.Q()
	if x.Sign() <= 0 || x.Cmp(q) >= 0 {
		return nil, ErrInvalidPublicKey
	}
	return &PrivateKey{cs: cs, x: new(big.Int).Set(x), pk: pk}, nil
}

// Cryptosystem returns the bound cryptosystem.
func (sk *PrivateKey) Cryptosystem() *group.Cryptosystem { return sk.cs }

// X returns a copy of the secret exponent.
func (sk *PrivateKey) X() *big.Int { return new(big.Int).Set(sk.x) }

// Public returns the matching PublicKey.
func (sk *PrivateKey) Public() *PublicKey { return sk.pk }
