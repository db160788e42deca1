package group_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/randsrc"
)

func testCryptosystem(t *testing.T) *group.Cryptosystem {
	t.Helper()
	cs, err := group.GenerateParameters(1024, randsrc.Default)
	require.NoError(t, err)
	return cs
}

func TestGenerateParametersRejectsWeakBitLength(t *testing.T) {
	_, err := group.GenerateParameters(512, randsrc.Default)
	require.ErrorIs(t, err, group.ErrWeakParameters)
}

func TestGenerateParametersProducesValidGroup(t *testing.T) {
	cs := testCryptosystem(t)

	require.True(t, cs.P().ProbablyPrime(64))
	require.True(t, cs.Q().ProbablyPrime(64))

	check := new(big.Int).Mul(cs.Q(), big.NewInt(2))
	check.Add(check, big.NewInt(1))
	require.Equal(t, 0, check.Cmp(cs.P()))

	require.True(t, cs.Contains(cs.G()))
	require.NotEqual(t, 0, cs.G().Cmp(big.NewInt(1)))
}

func TestFingerprintDeterminism(t *testing.T) {
	cs := testCryptosystem(t)

	reloaded, err := group.NewFromParams(cs.Nbits(), cs.P(), cs.Q(), cs.G())
	require.NoError(t, err)

	require.Equal(t, cs.Fingerprint(), reloaded.Fingerprint())
	require.True(t, cs.Equal(reloaded))
}

func TestNewFromParamsRejectsBadGenerator(t *testing.T) {
	cs := testCryptosystem(t)

	_, err := group.NewFromParams(cs.Nbits(), cs.P(), cs.Q(), big.NewInt(1))
	require.ErrorIs(t, err, group.ErrInvalidParameters)
}

func TestParameterFileRoundTrip(t *testing.T) {
	cs := testCryptosystem(t)

	var buf bytes.Buffer
	require.NoError(t, group.WriteParameterFile(&buf, cs))

	loaded, err := group.ReadParameterFile(&buf)
	require.NoError(t, err)
	require.Equal(t, cs.Fingerprint(), loaded.Fingerprint())
}

func TestBitStreamRoundTrip(t *testing.T) {
	bs := group.NewBitStream()
	msg := []byte("Dummy vote #7")
	bs.WriteBytes(msg)
	require.Equal(t, len(msg)*8, bs.Len())

	got := bs.ReadBigInt(0, 8)
	require.Equal(t, int64(msg[0]), got.Int64())

	bs.TruncateToBits(len(msg) * 8)
	require.Equal(t, msg, bs.Bytes())
}
