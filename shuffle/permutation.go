package shuffle

import (
	"math/big"

	"github.com/openvote/crypto-core/internal/randsrc"
)

// generatePermutation draws a uniform random permutation of [0,n) via the
// Knuth (Fisher-Yates) shuffle, sampling each swap index from src.
func generatePermutation(n int, src randsrc.Source) ([]int, error) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i >= 1; i-- {
		j, err := randsrc.SampleRange(src, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, err
		}
		jInt := int(j.Int64())
		perm[i], perm[jInt] = perm[jInt], perm[i]
	}
	return perm, nil
}
