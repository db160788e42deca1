package elgamal_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/randsrc"
)

func testCryptosystem(t *testing.T) *group.Cryptosystem {
	t.Helper()
	cs, err := group.GenerateParameters(1024, randsrc.Default)
	require.NoError(t, err)
	return cs
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cs := testCryptosystem(t)
	kp, err := elgamal.GenerateKeyPair(cs, randsrc.Default)
	require.NoError(t, err)

	for _, msg := range [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("Dummy vote #0"),
		bytes.Repeat([]byte{0xAB}, 300),
	} {
		ct, err := kp.Public.EncryptBytes(msg, randsrc.Default)
		require.NoError(t, err)

		got, err := kp.Private.DecryptToBytes(ct)
		require.NoError(t, err)
		require.Equal(t, msg, got)
	}
}

func TestDecryptRejectsIncompatibleCryptosystem(t *testing.T) {
	cs1 := testCryptosystem(t)
	cs2 := testCryptosystem(t)

	kp1, err := elgamal.GenerateKeyPair(cs1, randsrc.Default)
	require.NoError(t, err)
	kp2, err := elgamal.GenerateKeyPair(cs2, randsrc.Default)
	require.NoError(t, err)

	ct, err := kp1.Public.EncryptBytes([]byte("hello"), randsrc.Default)
	require.NoError(t, err)

	_, err = kp2.Private.DecryptToBytes(ct)
	require.ErrorIs(t, err, elgamal.ErrIncompatibleCryptosystem)
}

func TestCiphertextFingerprintDeterminism(t *testing.T) {
	cs := testCryptosystem(t)
	kp, err := elgamal.GenerateKeyPair(cs, randsrc.Default)
	require.NoError(t, err)

	ct, err := kp.Public.EncryptBytes([]byte("Dummy vote #1"), randsrc.Default)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, elgamal.WriteCiphertextFile(&buf, ct))

	reloaded, err := elgamal.ReadCiphertextFile(&buf, cs)
	require.NoError(t, err)

	require.Equal(t, ct.Fingerprint(), reloaded.Fingerprint())
}

func TestKeyFileRoundTrip(t *testing.T) {
	cs := testCryptosystem(t)
	kp, err := elgamal.GenerateKeyPair(cs, randsrc.Default)
	require.NoError(t, err)

	var pubBuf, privBuf bytes.Buffer
	require.NoError(t, elgamal.WritePublicKeyFile(&pubBuf, kp.Public))
	require.NoError(t, elgamal.WritePrivateKeyFile(&privBuf, kp.Private))

	loadedPub, err := elgamal.ReadPublicKeyFile(&pubBuf, cs)
	require.NoError(t, err)
	require.Equal(t, 0, loadedPub.H().Cmp(kp.Public.H()))

	loadedPriv, err := elgamal.ReadPrivateKeyFile(&privBuf, cs)
	require.NoError(t, err)
	require.Equal(t, 0, loadedPriv.X().Cmp(kp.Private.X()))
}
