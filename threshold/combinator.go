package threshold

import (
	"math/big"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/evlog"
	"github.com/openvote/crypto-core/group"
)

// Combinator verifies partial decryptions of a single Ciphertext under a
// fixed ThresholdPublicKey and, once at least k have been accepted,
// performs Lagrange interpolation in the exponent to recover the
// cleartext.
type Combinator struct {
	tpub     *ThresholdPublicKey
	ct       *elgamal.Ciphertext
	n, k     int
	accepted map[int]*PartialDecryption
	log      *evlog.Logger
}

// NewCombinator creates a Combinator for ct under tpub.
func NewCombinator(tpub *ThresholdPublicKey, ct *elgamal.Ciphertext, n, k int) (*Combinator, error) {
	if !tpub.cs.Equal(ct.Cryptosystem()) {
		return nil, elgamal.ErrIncompatibleCryptosystem
	}
	return &Combinator{
		tpub:     tpub,
		ct:       ct,
		n:        n,
		k:        k,
		accepted: make(map[int]*PartialDecryption),
		log:      evlog.Default().Module("threshold.combinator"),
	}, nil
}

// AddPartialDecryption verifies every per-block Chaum-Pedersen proof in pd
// against trustee i's verification value Y_i and the ciphertext's gammas,
// then accepts it. Duplicate trustee indices and any proof failure are
// rejected; a single failure is never silently dropped, per spec.md §7.
func (c *Combinator) AddPartialDecryption(i int, pd *PartialDecryption) error {
	if _, exists := c.accepted[i]; exists {
		return ErrDuplicatePartialDecryption
	}
	if pd.trusteeIndex != i {
		return ErrInvalidPartialDecryptionProof
	}
	if pd.Len() != c.ct.Len() {
		return ErrInvalidPartialDecryptionProof
	}
	yi := c.tpub.YFor(i)
	blocks := c.ct.Blocks()

	eg := new(errgroup.Group)
	for idx := range blocks {
		idx := idx
		eg.Go(func() error {
			if !verifyChaumPedersen(c.tpub.cs, yi, blocks[idx].Gamma, pd.ds[idx], pd.proofs[idx]) {
				return ErrInvalidPartialDecryptionProof
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		c.log.Warn("rejected partial decryption: proof verification failed")
		return ErrInvalidPartialDecryptionProof
	}

	c.accepted[i] = pd
	return nil
}

// AcceptedCount returns how many distinct trustee partial decryptions have
// been accepted so far.
func (c *Combinator) AcceptedCount() int { return len(c.accepted) }

// lagrangeCoefficient computes lambda_i = Π_{j in S, j!=i} (j+1) * ((j+1)-(i+1))^-1 mod q.
func lagrangeCoefficient(s []int, i int, q *big.Int) *big.Int {
	num := big.NewInt(1)
	den := big.NewInt(1)
	for _, j := range s {
		if j == i {
			continue
		}
		num.Mul(num, big.NewInt(int64(j+1)))
		num.Mod(num, q)
		diff := big.NewInt(int64(j - i))
		den.Mul(den, diff)
		den.Mod(den, q)
	}
	denInv := new(big.Int).ModInverse(den, q)
	lambda := new(big.Int).Mul(num, denInv)
	return lambda.Mod(lambda, q)
}

// DecryptToBytes recovers the cleartext once at least k partial decryptions
// have been accepted, using the canonical k smallest accepted trustee
// indices.
func (c *Combinator) DecryptToBytes() ([]byte, error) {
	if len(c.accepted) < c.k {
		return nil, ErrNotEnoughShares
	}

	indices := make([]int, 0, len(c.accepted))
	for i := range c.accepted {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	s := indices[:c.k]

	p, q := c.tpub.cs.P(), c.tpub.cs.Q()
	blockBits := c.tpub.cs.MaxBlockBits()
	blocks := c.ct.Blocks()
	if len(blocks) != (c.ct.BitLen()+blockBits-1)/blockBits && c.ct.BitLen() != 0 {
		return nil, ErrInvalidCiphertext
	}

	blockVals := make([]*big.Int, len(blocks))
	eg := new(errgroup.Group)
	for idx, blk := range blocks {
		idx, blk := idx, blk
		eg.Go(func() error {
			combined := big.NewInt(1)
			for _, i := range s {
				lambda := lagrangeCoefficient(s, i, q)
				di := c.accepted[i].ds[idx]
				term := new(big.Int).Exp(di, lambda, p)
				combined.Mul(combined, term)
				combined.Mod(combined, p)
			}
			combinedInv := new(big.Int).ModInverse(combined, p)
			if combinedInv == nil {
				return ErrInvalidCiphertext
			}
			m := new(big.Int).Mul(blk.Delta, combinedInv)
			m.Mod(m, p)
			if m.Sign() <= 0 {
				return ErrInvalidCiphertext
			}
			blockVals[idx] = new(big.Int).Sub(m, big.NewInt(1))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := group.NewBitStream()
	for _, b := range blockVals {
		out.WriteBigInt(b, blockBits)
	}
	out.TruncateToBits(c.ct.BitLen())
	return out.Bytes(), nil
}
