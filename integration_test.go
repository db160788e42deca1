package cryptocore_test

import (
	"fmt"
	"math/big"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/randsrc"
	"github.com/openvote/crypto-core/shuffle"
	"github.com/openvote/crypto-core/threshold"
)

// TestElectionEndToEnd walks the six literal scenarios an election run
// through this module: distributed key generation, ballot encryption, a
// chain of verified shuffles, rejection of a forged partial decryption,
// rejection of a tampered shuffle output, and decryption surviving the
// loss of one trustee's key.
func TestElectionEndToEnd(t *testing.T) {
	cs, err := group.GenerateParameters(1024, randsrc.Default)
	require.NoError(t, err)

	// Scenario 1: n=5, k=3 distributed key generation; every trustee
	// agrees on the same ThresholdPublicKey fingerprint.
	const n, k = 5, 3
	setups := make([]*threshold.SetUp, n)
	ownKeyPairs := make([]*elgamal.KeyPair, n)
	for i := 0; i < n; i++ {
		s, err := threshold.NewSetUp(cs, n, k)
		require.NoError(t, err)
		setups[i] = s
		kp, err := elgamal.GenerateKeyPair(cs, randsrc.Default)
		require.NoError(t, err)
		ownKeyPairs[i] = kp
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.NoError(t, setups[j].AddTrusteePublicKey(i, ownKeyPairs[i].Public))
		}
	}

	commitments := make([]*threshold.Commitment, n)
	shares := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		cm, share, err := setups[i].GenerateCommitment(i, randsrc.Default)
		require.NoError(t, err)
		commitments[i] = cm
		shares[i] = share
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.NoError(t, setups[j].AddTrusteeCommitment(i, commitments[i]))
		}
	}

	var serverFP [32]byte
	var tpub *threshold.ThresholdPublicKey
	tprivs := make([]*threshold.ThresholdPrivateKey, n)
	for i := 0; i < n; i++ {
		pub, priv, err := setups[i].GenerateKeyPair(i, ownKeyPairs[i].Private, shares[i])
		require.NoError(t, err)
		fp, err := setups[i].GetFingerprint()
		require.NoError(t, err)
		if i == 0 {
			serverFP = fp
		} else {
			require.Equal(t, serverFP, fp, "trustee %d setup fingerprint disagrees", i)
			require.Equal(t, tpub.Fingerprint(), pub.Fingerprint(), "trustee %d threshold public key disagrees", i)
		}
		tpub = pub
		tprivs[i] = priv
	}

	pk, err := tpub.ToPublicKey()
	require.NoError(t, err)

	// Scenario 2: twenty ballots encrypted under the threshold key; each
	// ciphertext's fingerprint matches the receipt recorded at upload time.
	const voteCount = 20
	votes := make([]string, voteCount)
	receipts := make([][32]byte, voteCount)
	collection := shuffle.NewCollection(cs, tpub.Y())
	for i := 0; i < voteCount; i++ {
		votes[i] = fmt.Sprintf("Dummy vote #%d", i)
		ct, err := pk.EncryptText(votes[i], randsrc.Default)
		require.NoError(t, err)
		receipts[i] = ct.Fingerprint()
		require.NoError(t, collection.AddCiphertext(ct))
	}
	for i := 0; i < voteCount; i++ {
		require.Equal(t, receipts[i], collection.Get(i).Fingerprint())
	}

	// Scenario 3: a random 3-subset of trustees shuffles the collection
	// three times in a row; every proof verifies, and the final multiset
	// of decrypted ballots equals the original twenty vote strings.
	shufflers := pickSubset(n, 3)
	current := collection
	for _, trustee := range shufflers {
		out, proof, err := shuffle.ShuffleWithProof(current, randsrc.Default)
		require.NoError(t, err)
		require.NoError(t, proof.Verify(current, out), "trustee %d's shuffle failed to verify", trustee)
		current = out
	}

	decrypted := make([]string, current.Len())
	for i := 0; i < current.Len(); i++ {
		ct := current.Get(i)
		combinator, err := threshold.NewCombinator(tpub, ct, n, k)
		require.NoError(t, err)
		for _, trustee := range shufflers {
			pd, err := tprivs[trustee].GeneratePartialDecryption(ct, randsrc.Default)
			require.NoError(t, err)
			require.NoError(t, combinator.AddPartialDecryption(trustee, pd))
		}
		msg, err := combinator.DecryptToBytes()
		require.NoError(t, err)
		decrypted[i] = string(msg)
	}
	require.ElementsMatch(t, votes, decrypted)

	// Scenario 4: one of the cooperating trustees submits a partial
	// decryption with u_b incremented by one in a single block; the
	// combinator rejects it outright.
	sampleCT := current.Get(0)
	badCombinator, err := threshold.NewCombinator(tpub, sampleCT, n, k)
	require.NoError(t, err)
	forger := shufflers[0]
	pd, err := tprivs[forger].GeneratePartialDecryption(sampleCT, randsrc.Default)
	require.NoError(t, err)
	tamperU(pd)
	err = badCombinator.AddPartialDecryption(forger, pd)
	require.ErrorIs(t, err, threshold.ErrInvalidPartialDecryptionProof)

	// Scenario 5: replace one ciphertext in the final shuffled collection
	// with a fresh encryption of "Dummy vote #0"; a new shuffle proof
	// generated over the final collection must fail to verify against the
	// tampered collection.
	forged, err := pk.EncryptText("Dummy vote #0", randsrc.Default)
	require.NoError(t, err)
	tamperedOutput := shuffle.NewCollection(cs, tpub.Y())
	for i := 0; i < current.Len(); i++ {
		if i == 0 {
			require.NoError(t, tamperedOutput.AddCiphertext(forged))
			continue
		}
		require.NoError(t, tamperedOutput.AddCiphertext(current.Get(i)))
	}
	_, lastProof, err := shuffle.ShuffleWithProof(current, randsrc.Default)
	require.NoError(t, err)
	err = lastProof.Verify(current, tamperedOutput)
	require.ErrorIs(t, err, shuffle.ErrInvalidShuffleProof)

	// Scenario 6: n=3, k=2; destroying trustee 0's key material still
	// leaves trustees 1 and 2 able to decrypt every vote, while any single
	// trustee alone is short of quorum.
	cs2, err := group.GenerateParameters(1024, randsrc.Default)
	require.NoError(t, err)
	smallTpub, smallPrivs := runSmallDKG(t, cs2, 3, 2)
	smallPK, err := smallTpub.ToPublicKey()
	require.NoError(t, err)
	ct, err := smallPK.EncryptText("quorum survives trustee loss", randsrc.Default)
	require.NoError(t, err)
	smallPrivs[0] = nil // trustee 0's key material is destroyed

	full, err := threshold.NewCombinator(smallTpub, ct, 3, 2)
	require.NoError(t, err)
	for _, i := range []int{1, 2} {
		pd, err := smallPrivs[i].GeneratePartialDecryption(ct, randsrc.Default)
		require.NoError(t, err)
		require.NoError(t, full.AddPartialDecryption(i, pd))
	}
	got, err := full.DecryptToBytes()
	require.NoError(t, err)
	require.Equal(t, "quorum survives trustee loss", string(got))

	for _, i := range []int{1, 2} {
		solo, err := threshold.NewCombinator(smallTpub, ct, 3, 2)
		require.NoError(t, err)
		pd, err := smallPrivs[i].GeneratePartialDecryption(ct, randsrc.Default)
		require.NoError(t, err)
		require.NoError(t, solo.AddPartialDecryption(i, pd))
		_, err = solo.DecryptToBytes()
		require.ErrorIs(t, err, threshold.ErrNotEnoughShares)
	}
}

func runSmallDKG(t *testing.T, cs *group.Cryptosystem, n, k int) (*threshold.ThresholdPublicKey, []*threshold.ThresholdPrivateKey) {
	t.Helper()
	setups := make([]*threshold.SetUp, n)
	ownKeyPairs := make([]*elgamal.KeyPair, n)
	for i := 0; i < n; i++ {
		s, err := threshold.NewSetUp(cs, n, k)
		require.NoError(t, err)
		setups[i] = s
		kp, err := elgamal.GenerateKeyPair(cs, randsrc.Default)
		require.NoError(t, err)
		ownKeyPairs[i] = kp
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.NoError(t, setups[j].AddTrusteePublicKey(i, ownKeyPairs[i].Public))
		}
	}
	commitments := make([]*threshold.Commitment, n)
	shares := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		cm, share, err := setups[i].GenerateCommitment(i, randsrc.Default)
		require.NoError(t, err)
		commitments[i] = cm
		shares[i] = share
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.NoError(t, setups[j].AddTrusteeCommitment(i, commitments[i]))
		}
	}
	var tpub *threshold.ThresholdPublicKey
	privs := make([]*threshold.ThresholdPrivateKey, n)
	for i := 0; i < n; i++ {
		pub, priv, err := setups[i].GenerateKeyPair(i, ownKeyPairs[i].Private, shares[i])
		require.NoError(t, err)
		tpub = pub
		privs[i] = priv
	}
	return tpub, privs
}

// pickSubset returns k distinct indices in [0,n) in ascending order.
func pickSubset(n, k int) []int {
	idx := rand.Perm(n)[:k]
	sort.Ints(idx)
	return idx
}

// tamperU increments the first block's Chaum-Pedersen U value by one, the
// way a malicious trustee might try to forge a partial decryption proof.
func tamperU(pd *threshold.PartialDecryption) {
	proof := pd.Proof(0)
	proof.U.Add(proof.U, big.NewInt(1))
}
