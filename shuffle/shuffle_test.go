package shuffle_test

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/randsrc"
	"github.com/openvote/crypto-core/shuffle"
)

func testCryptosystem(t *testing.T) *group.Cryptosystem {
	t.Helper()
	cs, err := group.GenerateParameters(1024, randsrc.Default)
	require.NoError(t, err)
	return cs
}

func buildCollection(t *testing.T, cs *group.Cryptosystem, pk *elgamal.PublicKey, votes []string) *shuffle.CiphertextCollection {
	t.Helper()
	c := shuffle.NewCollection(cs, pk.H())
	for _, v := range votes {
		ct, err := pk.EncryptText(v, randsrc.Default)
		require.NoError(t, err)
		require.NoError(t, c.AddCiphertext(ct))
	}
	return c
}

func decryptAll(t *testing.T, sk *elgamal.PrivateKey, c *shuffle.CiphertextCollection) []string {
	t.Helper()
	out := make([]string, c.Len())
	for i := 0; i < c.Len(); i++ {
		s, err := sk.DecryptToText(c.Get(i))
		require.NoError(t, err)
		out[i] = s
	}
	return out
}

func TestShuffleWithProofPreservesMultisetAndVerifies(t *testing.T) {
	cs := testCryptosystem(t)
	kp, err := elgamal.GenerateKeyPair(cs, randsrc.Default)
	require.NoError(t, err)

	votes := []string{
		"Dummy vote #0", "Dummy vote #1", "Dummy vote #2", "Dummy vote #3",
		"Dummy vote #4", "Dummy vote #5", "Dummy vote #6", "Dummy vote #7",
	}
	a := buildCollection(t, cs, kp.Public, votes)

	b, proof, err := shuffle.ShuffleWithProof(a, randsrc.Default)
	require.NoError(t, err)
	require.Equal(t, a.Len(), b.Len())
	require.NoError(t, proof.Verify(a, b))

	got := decryptAll(t, kp.Private, b)
	want := append([]string(nil), votes...)
	sort.Strings(got)
	sort.Strings(want)
	require.Equal(t, want, got)
}

func TestTripleShuffleChainVerifies(t *testing.T) {
	cs := testCryptosystem(t)
	kp, err := elgamal.GenerateKeyPair(cs, randsrc.Default)
	require.NoError(t, err)

	votes := make([]string, 20)
	for i := range votes {
		votes[i] = "Dummy vote #" + string(rune('A'+i))
	}
	original := buildCollection(t, cs, kp.Public, votes)

	current := original
	for i := 0; i < 3; i++ {
		next, proof, err := shuffle.ShuffleWithProof(current, randsrc.Default)
		require.NoError(t, err)
		require.NoError(t, proof.Verify(current, next))
		current = next
	}

	got := decryptAll(t, kp.Private, current)
	want := append([]string(nil), votes...)
	sort.Strings(got)
	sort.Strings(want)
	require.Equal(t, want, got)
}

func TestVerifyRejectsTamperedOutput(t *testing.T) {
	cs := testCryptosystem(t)
	kp, err := elgamal.GenerateKeyPair(cs, randsrc.Default)
	require.NoError(t, err)

	votes := []string{"Dummy vote #0", "Dummy vote #1", "Dummy vote #2"}
	a := buildCollection(t, cs, kp.Public, votes)
	b, proof, err := shuffle.ShuffleWithProof(a, randsrc.Default)
	require.NoError(t, err)

	tamperedCt, err := kp.Public.EncryptText("Dummy vote #0", randsrc.Default)
	require.NoError(t, err)
	tampered := shuffle.NewCollection(cs, kp.Public.H())
	for i := 0; i < b.Len(); i++ {
		if i == 0 {
			require.NoError(t, tampered.AddCiphertext(tamperedCt))
			continue
		}
		require.NoError(t, tampered.AddCiphertext(b.Get(i)))
	}

	err = proof.Verify(a, tampered)
	require.ErrorIs(t, err, shuffle.ErrInvalidShuffleProof)
}

func TestCollectionRejectsBlockCountMismatch(t *testing.T) {
	cs := testCryptosystem(t)
	kp, err := elgamal.GenerateKeyPair(cs, randsrc.Default)
	require.NoError(t, err)

	c := shuffle.NewCollection(cs, kp.Public.H())
	short, err := kp.Public.EncryptBytes([]byte("a"), randsrc.Default)
	require.NoError(t, err)
	require.NoError(t, c.AddCiphertext(short))

	long, err := kp.Public.EncryptBytes(bytes.Repeat([]byte{0xAB}, 500), randsrc.Default)
	require.NoError(t, err)
	err = c.AddCiphertext(long)
	require.ErrorIs(t, err, shuffle.ErrBlockCountMismatch)
}

func TestShuffleProofFileRoundTrip(t *testing.T) {
	cs := testCryptosystem(t)
	kp, err := elgamal.GenerateKeyPair(cs, randsrc.Default)
	require.NoError(t, err)

	votes := []string{"Dummy vote #0", "Dummy vote #1", "Dummy vote #2", "Dummy vote #3"}
	a := buildCollection(t, cs, kp.Public, votes)
	b, proof, err := shuffle.ShuffleWithProof(a, randsrc.Default)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, shuffle.WriteShuffleProofFile(&buf, proof))
	loaded, err := shuffle.ReadShuffleProofFile(&buf, cs)
	require.NoError(t, err)
	require.NoError(t, loaded.Verify(a, b))
}

func TestCollectionFileRoundTrip(t *testing.T) {
	cs := testCryptosystem(t)
	kp, err := elgamal.GenerateKeyPair(cs, randsrc.Default)
	require.NoError(t, err)

	votes := []string{"Dummy vote #0", "Dummy vote #1"}
	a := buildCollection(t, cs, kp.Public, votes)

	var buf bytes.Buffer
	require.NoError(t, shuffle.WriteCollectionFile(&buf, a))
	loaded, err := shuffle.ReadCollectionFile(&buf, cs)
	require.NoError(t, err)
	require.Equal(t, a.Fingerprint(), loaded.Fingerprint())
}
