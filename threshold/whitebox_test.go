package threshold

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/randsrc"
)

func whiteboxCryptosystem(t *testing.T) *group.Cryptosystem {
	t.Helper()
	cs, err := group.GenerateParameters(1024, randsrc.Default)
	require.NoError(t, err)
	return cs
}

func TestSetUpDetectsTamperedCommitment(t *testing.T) {
	cs := whiteboxCryptosystem(t)
	n, k := 3, 2

	setups := make([]*SetUp, n)
	ownKeyPairs := make([]*elgamal.KeyPair, n)
	for i := 0; i < n; i++ {
		s, err := NewSetUp(cs, n, k)
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

	commitments := make([]*Commitment, n)
	ownShares := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		cm, share, err := setups[i].GenerateCommitment(i, randsrc.Default)
		require.NoError(t, err)
		commitments[i] = cm
		ownShares[i] = share
	}

	// Trustee 1 tampers with its own published coefficients after the fact,
	// so every recipient's VSS check against that commitment must fail.
	commitments[1].coeffs[0] = new(big.Int).Add(commitments[1].coeffs[0], big.NewInt(1))

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.NoError(t, setups[j].AddTrusteeCommitment(i, commitments[i]))
		}
	}

	_, _, err := setups[0].GenerateKeyPair(0, ownKeyPairs[0].Private, ownShares[0])
	var commitErr *InvalidCommitmentError
	require.ErrorAs(t, err, &commitErr)
	require.Equal(t, 1, commitErr.TrusteeIndex)
}

func TestCombinatorRejectsTamperedPartialDecryptionProof(t *testing.T) {
	cs := whiteboxCryptosystem(t)
	n, k := 3, 2

	setups := make([]*SetUp, n)
	ownKeyPairs := make([]*elgamal.KeyPair, n)
	for i := 0; i < n; i++ {
		s, err := NewSetUp(cs, n, k)
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

	commitments := make([]*Commitment, n)
	ownShares := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		cm, share, err := setups[i].GenerateCommitment(i, randsrc.Default)
		require.NoError(t, err)
		commitments[i] = cm
		ownShares[i] = share
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.NoError(t, setups[j].AddTrusteeCommitment(i, commitments[i]))
		}
	}

	var tpub *ThresholdPublicKey
	privs := make([]*ThresholdPrivateKey, n)
	for i := 0; i < n; i++ {
		pub, priv, err := setups[i].GenerateKeyPair(i, ownKeyPairs[i].Private, ownShares[i])
		require.NoError(t, err)
		tpub = pub
		privs[i] = priv
	}

	pk, err := tpub.ToPublicKey()
	require.NoError(t, err)
	ct, err := pk.EncryptBytes([]byte("tamper me"), randsrc.Default)
	require.NoError(t, err)

	pd, err := privs[0].GeneratePartialDecryption(ct, randsrc.Default)
	require.NoError(t, err)
	// Perturb block 0's proof response so the Chaum-Pedersen check must fail.
	pd.proofs[0].U = new(big.Int).Add(pd.proofs[0].U, big.NewInt(1))

	combinator, err := NewCombinator(tpub, ct, n, k)
	require.NoError(t, err)
	err = combinator.AddPartialDecryption(0, pd)
	require.ErrorIs(t, err, ErrInvalidPartialDecryptionProof)
}
