package shuffle

import (
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/internal/randsrc"
)

// sampleRerandomizers draws n*blockCount independent re-randomizers in
// [1, q-1], indexed [i][b].
func sampleRerandomizers(n, blockCount int, q *big.Int, src randsrc.Source) ([][]*big.Int, error) {
	out := make([][]*big.Int, n)
	for i := range out {
		out[i] = make([]*big.Int, blockCount)
		for b := range out[i] {
			r, err := randsrc.Sample(src, q)
			if err != nil {
				return nil, err
			}
			out[i][b] = r
		}
	}
	return out, nil
}

// reencryptBlock computes (gamma*g^r mod p, delta*Y^r mod p), the re-
// randomization of a single ElGamal block that leaves the underlying
// plaintext unchanged while rebinding the ciphertext to a fresh random
// exponent.
func reencryptBlock(p, g, y *big.Int, blk elgamal.Block, r *big.Int) elgamal.Block {
	gamma := new(big.Int).Exp(g, r, p)
	gamma.Mul(gamma, blk.Gamma)
	gamma.Mod(gamma, p)

	delta := new(big.Int).Exp(y, r, p)
	delta.Mul(delta, blk.Delta)
	delta.Mod(delta, p)

	return elgamal.Block{Gamma: gamma, Delta: delta}
}

// reencryptCollection re-encrypts and permutes src: out[perm[i]] is the
// re-randomization of src.Get(i) under rerand[i]. Block-independent work is
// parallelized with errgroup per spec.md §5.
func reencryptCollection(src *CiphertextCollection, perm []int, rerand [][]*big.Int) (*CiphertextCollection, error) {
	n := src.Len()
	if len(perm) != n || len(rerand) != n {
		return nil, ErrInvalidShuffleProof
	}

	cs := src.Cryptosystem()
	p, g, y := cs.P(), cs.G(), src.Y()
	outCts := make([]*elgamal.Ciphertext, n)

	eg := new(errgroup.Group)
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			ct := src.Get(i)
			blocks := make([]elgamal.Block, ct.Len())
			for b := 0; b < ct.Len(); b++ {
				blocks[b] = reencryptBlock(p, g, y, ct.Block(b), rerand[i][b])
			}
			newCt, err := elgamal.NewCiphertext(cs, ct.BitLen(), blocks)
			if err != nil {
				return err
			}
			outCts[i] = newCt
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := NewCollection(cs, y)
	placed := make([]*elgamal.Ciphertext, n)
	for i, j := range perm {
		if j < 0 || j >= n || placed[j] != nil {
			return nil, ErrInvalidShuffleProof
		}
		placed[j] = outCts[i]
	}
	for _, ct := range placed {
		if err := out.AddCiphertext(ct); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// invertPerm returns inv such that inv[perm[i]] == i for all i.
func invertPerm(perm []int) []int {
	inv := make([]int, len(perm))
	for i, j := range perm {
		inv[j] = i
	}
	return inv
}

// composePerm returns tau such that tau[j] = outer[innerInverse[j]], the
// permutation that results from first undoing innerInverse's forward
// mapping and then applying outer.
func composePerm(outer, innerInverse []int) []int {
	tau := make([]int, len(outer))
	for j := range tau {
		tau[j] = outer[innerInverse[j]]
	}
	return tau
}

func subModQ(a, b, q *big.Int) *big.Int {
	d := new(big.Int).Sub(a, b)
	return d.Mod(d, q)
}
