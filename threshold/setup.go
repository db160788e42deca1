package threshold

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/google/uuid"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/evlog"
	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/randsrc"
	"github.com/openvote/crypto-core/internal/wire"
)

// SetUp mediates a single distributed threshold-ElGamal key generation
// round. It is a builder/state machine: Open while trustees register
// public keys and commitments, Sealed (rejecting further registrations)
// the moment any output (commitment generation aside, which only needs
// public keys) is requested. Per-object operations are externally
// sequential; callers serialize calls to a single SetUp the way they
// serialize calls to elgamal.Ciphertext.append (see spec.md §5).
type SetUp struct {
	cs            *group.Cryptosystem
	n, k          int
	sessionID     uuid.UUID
	log           *evlog.Logger
	pubKeys       map[int]*elgamal.PublicKey
	commitments   map[int]*Commitment
	sealed        bool
}

// NewSetUp creates a fresh threshold setup for n trustees with recovery
// threshold k (2 <= k <= n).
func NewSetUp(cs *group.Cryptosystem, n, k int) (*SetUp, error) {
	if k < 2 || k > n {
		return nil, fmt.Errorf("threshold: invalid (n=%d, k=%d): require 2 <= k <= n", n, k)
	}
	return &SetUp{
		cs:          cs,
		n:           n,
		k:           k,
		sessionID:   uuid.New(),
		log:         evlog.Default().Module("threshold.setup"),
		pubKeys:     make(map[int]*elgamal.PublicKey),
		commitments: make(map[int]*Commitment),
	}, nil
}

// SessionID returns the non-cryptographic random id drawn when this SetUp
// was created. Each SetUp draws its own id, and the id is not written into
// this SetUp's log lines.
func (s *SetUp) SessionID() uuid.UUID { return s.sessionID }

// AddTrusteePublicKey registers trustee i's single-recipient ElGamal public
// key, used as the private channel for that trustee's VSS shares.
func (s *SetUp) AddTrusteePublicKey(i int, pk *elgamal.PublicKey) error {
	if s.sealed {
		return ErrSetupSealed
	}
	if i < 0 || i >= s.n {
		return fmt.Errorf("threshold: trustee index %d out of range [0,%d)", i, s.n)
	}
	if _, exists := s.pubKeys[i]; exists {
		return ErrDuplicateTrustee
	}
	if !s.cs.Equal(pk.Cryptosystem()) {
		return elgamal.ErrIncompatibleCryptosystem
	}
	s.pubKeys[i] = pk
	return nil
}

// AddTrusteeCommitment registers trustee i's VSS commitment.
func (s *SetUp) AddTrusteeCommitment(i int, cm *Commitment) error {
	if s.sealed {
		return ErrSetupSealed
	}
	if i < 0 || i >= s.n {
		return fmt.Errorf("threshold: trustee index %d out of range [0,%d)", i, s.n)
	}
	if _, exists := s.commitments[i]; exists {
		return ErrDuplicateTrustee
	}
	if cm.trusteeIndex != i {
		return fmt.Errorf("threshold: commitment trustee index %d does not match registration index %d", cm.trusteeIndex, i)
	}
	if len(cm.coeffs) != s.k || len(cm.shares) != s.n {
		return fmt.Errorf("threshold: malformed commitment shape")
	}
	s.commitments[i] = cm
	return nil
}

func (s *SetUp) allPublicKeysPresent() bool { return len(s.pubKeys) == s.n }
func (s *SetUp) allCommitmentsPresent() bool { return len(s.commitments) == s.n }

// GenerateCommitment runs trustee ownIndex's side of the Pedersen-style VSS
// round: it samples a degree-(k-1) polynomial, publishes coefficients, and
// encrypts each other trustee's evaluation under that trustee's public key.
// It returns the Commitment to publish plus the trustee's own unencrypted
// evaluation f(ownIndex+1), which the caller must retain privately for
// GenerateKeyPair (spec.md §4.4 step 3: "own index's share is ... retained
// by caller").
func (s *SetUp) GenerateCommitment(ownIndex int, src randsrc.Source) (*Commitment, *big.Int, error) {
	if !s.allPublicKeysPresent() {
		return nil, nil, ErrIncompleteSetup
	}
	q := s.cs.Q()

	coeffs := make([]*big.Int, s.k)
	for t := 0; t < s.k; t++ {
		c, err := randsrc.SampleRange(src, q)
		if err != nil {
			return nil, nil, err
		}
		if t == 0 {
			for c.Sign() == 0 {
				c, err = randsrc.SampleRange(src, q)
				if err != nil {
					return nil, nil, err
				}
			}
		}
		coeffs[t] = c
	}

	publicCoeffs := make([]*big.Int, s.k)
	p, g := s.cs.P(), s.cs.G()
	for t, a := range coeffs {
		publicCoeffs[t] = new(big.Int).Exp(g, a, p)
	}

	var ownShare *big.Int
	shares := make([]*elgamal.Ciphertext, s.n)
	for i := 0; i < s.n; i++ {
		x := big.NewInt(int64(i + 1))
		si := evalPoly(coeffs, x, q)
		if i == ownIndex {
			ownShare = si
			shares[i] = nil
			continue
		}
		recipient := s.pubKeys[i]
		ct, err := recipient.EncryptBytes(encodeShare(si, q), src)
		if err != nil {
			return nil, nil, err
		}
		shares[i] = ct
	}

	cm := &Commitment{trusteeIndex: ownIndex, coeffs: publicCoeffs, shares: shares}
	s.log.Info(fmt.Sprintf("trustee %d generated VSS commitment", ownIndex))
	return cm, ownShare, nil
}

// GeneratePublicKey derives the ThresholdPublicKey Y = Π A_{j,0} and the
// per-trustee verification values Y_i, once every trustee's commitment has
// been registered. Requesting this output seals the setup.
func (s *SetUp) GeneratePublicKey() (*ThresholdPublicKey, error) {
	if !s.allCommitmentsPresent() {
		return nil, ErrIncompleteSetup
	}
	s.sealed = true

	p := s.cs.P()
	y := big.NewInt(1)
	for j := 0; j < s.n; j++ {
		y.Mul(y, s.commitments[j].coeffs[0])
		y.Mod(y, p)
	}

	yi := make([]*big.Int, s.n)
	for i := 0; i < s.n; i++ {
		x := big.NewInt(int64(i + 1))
		acc := big.NewInt(1)
		for j := 0; j < s.n; j++ {
			coeffs := s.commitments[j].coeffs
			xPow := big.NewInt(1)
			for _, A := range coeffs {
				term := new(big.Int).Exp(A, xPow, p)
				acc.Mul(acc, term)
				acc.Mod(acc, p)
				xPow.Mul(xPow, x)
			}
		}
		yi[i] = acc
	}

	return &ThresholdPublicKey{cs: s.cs, n: s.n, k: s.k, y: y, yi: yi}, nil
}

// GenerateKeyPair completes distributed key generation for trustee
// ownIndex: it decrypts and VSS-verifies every other trustee's share
// directed at ownIndex, combines them with the trustee's own retained
// share, and returns the resulting ThresholdPrivateKey alongside the
// ThresholdPublicKey. ownPrivateKey must match the public key registered
// for ownIndex, and ownShare must be the value returned by this trustee's
// own GenerateCommitment call.
func (s *SetUp) GenerateKeyPair(ownIndex int, ownPrivateKey *elgamal.PrivateKey, ownShare *big.Int) (*ThresholdPublicKey, *ThresholdPrivateKey, error) {
	if !s.allCommitmentsPresent() {
		return nil, nil, ErrIncompleteSetup
	}
	s.sealed = true

	registered, ok := s.pubKeys[ownIndex]
	if !ok || registered.H().Cmp(ownPrivateKey.Public().H()) != 0 {
		return nil, nil, ErrInvalidPrivateKey
	}

	q := s.cs.Q()
	x := big.NewInt(int64(ownIndex + 1))

	share := new(big.Int).Set(ownShare)
	for j := 0; j < s.n; j++ {
		if j == ownIndex {
			continue
		}
		cm := s.commitments[j]
		shareCT := cm.shares[ownIndex]
		plain, err := ownPrivateKey.DecryptToBytes(shareCT)
		if err != nil {
			return nil, nil, &InvalidCommitmentError{TrusteeIndex: j}
		}
		sji := decodeShare(plain)
		if !verifyShareAgainstCoeffs(s.cs, cm.coeffs, x, sji) {
			return nil, nil, &InvalidCommitmentError{TrusteeIndex: j}
		}
		share.Add(share, sji)
		share.Mod(share, q)
	}

	tpub, err := s.GeneratePublicKey()
	if err != nil {
		return nil, nil, err
	}

	tpriv := &ThresholdPrivateKey{
		cs:    s.cs,
		index: ownIndex,
		n:     s.n,
		k:     s.k,
		share: share,
		y:     tpub.y,
		yi:    tpub.yi,
	}
	return tpub, tpriv, nil
}

// GetFingerprint returns the SHA-256 fingerprint over (cryptosystem
// fingerprint, n, k, commitments sorted by trustee index), defined only
// once every commitment has been registered. Every trustee that ran the
// same round sees the same fingerprint, which is what lets operators
// cross-check setups without comparing secrets.
func (s *SetUp) GetFingerprint() ([32]byte, error) {
	if !s.allCommitmentsPresent() {
		return [32]byte{}, ErrIncompleteSetup
	}
	s.sealed = true

	indices := make([]int, 0, s.n)
	for i := range s.commitments {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	csFP := s.cs.Fingerprint()
	enc := wire.NewEncoder().
		PutFingerprint(csFP).
		PutUint64(uint64(s.n)).
		PutUint64(uint64(s.k))
	for _, i := range indices {
		enc.PutFingerprint(s.commitments[i].fingerprint())
	}
	return enc.Sum256(), nil
}
