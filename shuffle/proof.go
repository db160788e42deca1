package shuffle

import (
	"math/big"

	"github.com/openvote/crypto-core/internal/randsrc"
	"github.com/openvote/crypto-core/internal/wire"
)

// ChallengeBits is the number of cut-and-choose challenge positions, fixed
// at t=128 so that a cheating prover's success probability is bounded by
// 2^-128, per spec.md §4.8.
const ChallengeBits = 128

// Branch is the prover's response at one challenge position. Only one of
// the two reveal shapes is populated, selected by Bit: σ_ℓ/ρ when Bit==0,
// τ_ℓ/ρ' plus the intermediate collection M_ℓ when Bit==1 (needed because
// the Bit==1 verification equation is stated directly against M_ℓ, not
// against a value recoverable from its fingerprint alone).
type Branch struct {
	Bit          int
	MFingerprint [32]byte

	Perm   []int
	Rerand [][]*big.Int

	Tau         []int
	RerandPrime [][]*big.Int
	M           *CiphertextCollection
}

// ShufflingProof is a non-interactive honest-verifier zero-knowledge proof
// that Output is a permutation and re-encryption of Input under Y.
type ShufflingProof struct {
	InputFingerprint  [32]byte
	OutputFingerprint [32]byte
	Y                 *big.Int
	Branches          []Branch
}

// buildChallengeEncoder assembles the Fiat-Shamir transcript: input
// fingerprint, output fingerprint, Y, then every branch's M_ℓ fingerprint
// in order. The challenge is derived only after every M_ℓ has been
// committed, so a prover can never adapt a branch to a challenge it
// already knows (spec.md §4.8's non-adaptivity invariant).
func buildChallengeEncoder(inputFP, outputFP [32]byte, y *big.Int, mFPs [][32]byte) *wire.Encoder {
	enc := wire.NewEncoder().
		PutFingerprint(inputFP).
		PutFingerprint(outputFP).
		PutBigInt(y)
	for _, fp := range mFPs {
		enc.PutFingerprint(fp)
	}
	return enc
}

// GenerateShuffleProof builds a ShufflingProof that output = reencrypt(input,
// perm, rerand). It computes all t intermediate collections M_ℓ first and
// derives the challenge only afterward, matching the commit-then-challenge
// structure the Sigma protocol requires.
func GenerateShuffleProof(input, output *CiphertextCollection, perm []int, rerand [][]*big.Int, src randsrc.Source) (*ShufflingProof, error) {
	n := input.Len()
	q := input.Cryptosystem().Q()

	type branchMaterial struct {
		sigma []int
		rho   [][]*big.Int
		m     *CiphertextCollection
	}
	materials := make([]branchMaterial, ChallengeBits)
	mFPs := make([][32]byte, ChallengeBits)

	blockCount := 0
	if n > 0 {
		blockCount = input.Get(0).Len()
	}

	for l := 0; l < ChallengeBits; l++ {
		sigma, err := generatePermutation(n, src)
		if err != nil {
			return nil, err
		}
		rho, err := sampleRerandomizers(n, blockCount, q, src)
		if err != nil {
			return nil, err
		}
		m, err := reencryptCollection(input, sigma, rho)
		if err != nil {
			return nil, err
		}
		materials[l] = branchMaterial{sigma: sigma, rho: rho, m: m}
		mFPs[l] = m.Fingerprint()
	}

	inputFP := input.Fingerprint()
	outputFP := output.Fingerprint()
	y := input.Y()
	challenge := wire.ChallengeBits(buildChallengeEncoder(inputFP, outputFP, y, mFPs), ChallengeBits)

	branches := make([]Branch, ChallengeBits)
	for l := 0; l < ChallengeBits; l++ {
		mat := materials[l]
		if challenge[l] == 0 {
			branches[l] = Branch{
				Bit:          0,
				MFingerprint: mFPs[l],
				Perm:         mat.sigma,
				Rerand:       mat.rho,
			}
			continue
		}

		invSigma := invertPerm(mat.sigma)
		tau := composePerm(perm, invSigma)
		rerandPrime := make([][]*big.Int, n)
		for j := 0; j < n; j++ {
			a := invSigma[j]
			rerandPrime[j] = make([]*big.Int, blockCount)
			for b := 0; b < blockCount; b++ {
				rerandPrime[j][b] = subModQ(rerand[a][b], mat.rho[a][b], q)
			}
		}

		branches[l] = Branch{
			Bit:          1,
			MFingerprint: mFPs[l],
			Tau:          tau,
			RerandPrime:  rerandPrime,
			M:            mat.m,
		}
	}

	return &ShufflingProof{
		InputFingerprint:  inputFP,
		OutputFingerprint: outputFP,
		Y:                 y,
		Branches:          branches,
	}, nil
}

// Verify recomputes the Fiat-Shamir challenge from the proof's committed
// M_ℓ fingerprints and checks that every branch both matches that challenge
// bit and satisfies its corresponding re-encryption equation. Any
// discrepancy - wrong branch count, a bit that disagrees with the
// recomputed challenge, or a failed re-encryption check - is
// ErrInvalidShuffleProof.
func (sp *ShufflingProof) Verify(input, output *CiphertextCollection) error {
	if len(sp.Branches) != ChallengeBits {
		return ErrInvalidShuffleProof
	}
	if sp.InputFingerprint != input.Fingerprint() || sp.OutputFingerprint != output.Fingerprint() {
		return ErrInvalidShuffleProof
	}
	if sp.Y.Cmp(input.Y()) != 0 || sp.Y.Cmp(output.Y()) != 0 {
		return ErrInvalidShuffleProof
	}

	mFPs := make([][32]byte, ChallengeBits)
	for l, br := range sp.Branches {
		mFPs[l] = br.MFingerprint
	}
	challenge := wire.ChallengeBits(buildChallengeEncoder(sp.InputFingerprint, sp.OutputFingerprint, sp.Y, mFPs), ChallengeBits)

	for l, br := range sp.Branches {
		if br.Bit != challenge[l] {
			return ErrInvalidShuffleProof
		}
		switch br.Bit {
		case 0:
			m, err := reencryptCollection(input, br.Perm, br.Rerand)
			if err != nil {
				return ErrInvalidShuffleProof
			}
			if m.Fingerprint() != br.MFingerprint {
				return ErrInvalidShuffleProof
			}
		case 1:
			if br.M == nil || br.M.Fingerprint() != br.MFingerprint {
				return ErrInvalidShuffleProof
			}
			b, err := reencryptCollection(br.M, br.Tau, br.RerandPrime)
			if err != nil {
				return ErrInvalidShuffleProof
			}
			if b.Fingerprint() != sp.OutputFingerprint {
				return ErrInvalidShuffleProof
			}
		default:
			return ErrInvalidShuffleProof
		}
	}
	return nil
}

// ShuffleWithProof samples a uniform random permutation and fresh
// re-randomizers, builds the re-encrypted output collection, and proves it
// correct relative to input.
func ShuffleWithProof(input *CiphertextCollection, src randsrc.Source) (*CiphertextCollection, *ShufflingProof, error) {
	n := input.Len()
	blockCount := 0
	if n > 0 {
		blockCount = input.Get(0).Len()
	}
	q := input.Cryptosystem().Q()

	perm, err := generatePermutation(n, src)
	if err != nil {
		return nil, nil, err
	}
	rerand, err := sampleRerandomizers(n, blockCount, q, src)
	if err != nil {
		return nil, nil, err
	}

	output, err := reencryptCollection(input, perm, rerand)
	if err != nil {
		return nil, nil, err
	}

	proof, err := GenerateShuffleProof(input, output, perm, rerand, src)
	if err != nil {
		return nil, nil, err
	}
	return output, proof, nil
}
