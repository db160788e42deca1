package elgamal

import (
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/randsrc"
	"github.com/openvote/crypto-core/internal/wire"
)

// Block is a single ElGamal block (gamma, delta) within a Ciphertext.
type Block struct {
	Gamma *big.Int
	Delta *big.Int
}

// Ciphertext is an ordered sequence of ElGamal blocks plus the bit-length of
// the original cleartext, which lets decryption discard the last block's
// zero-bit padding.
type Ciphertext struct {
	cs     *group.Cryptosystem
	bitLen int
	blocks []Block
}

// NewCiphertext wraps pre-built blocks under cs with the given cleartext
// bit-length, used when loading a ciphertext file.
func NewCiphertext(cs *group.Cryptosystem, bitLen int, blocks []Block) (*Ciphertext, error) {
	expected := blockCount(bitLen, cs.MaxBlockBits())
	if len(blocks) != expected {
		return nil, ErrInvalidCiphertext
	}
	for _, b := range blocks {
		if !cs.Contains(b.Gamma) {
			return nil, ErrInvalidCiphertext
		}
		if b.Delta.Sign() <= 0 || b.Delta.Cmp(cs.P()) >= 0 {
			return nil, ErrInvalidCiphertext
		}
	}
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return &Ciphertext{cs: cs, bitLen: bitLen, blocks: out}, nil
}

func blockCount(bitLen, blockBits int) int {
	if bitLen == 0 {
		return 0
	}
	return (bitLen + blockBits - 1) / blockBits
}

// Cryptosystem returns the bound cryptosystem.
func (ct *Ciphertext) Cryptosystem() *group.Cryptosystem { return ct.cs }

// BitLen returns the recorded cleartext bit-length.
func (ct *Ciphertext) BitLen() int { return ct.bitLen }

// Len returns the number of blocks.
func (ct *Ciphertext) Len() int { return len(ct.blocks) }

// Block returns a copy of the i-th block.
func (ct *Ciphertext) Block(i int) Block {
	b := ct.blocks[i]
	return Block{Gamma: new(big.Int).Set(b.Gamma), Delta: new(big.Int).Set(b.Delta)}
}

// Blocks returns a copy of every block, in order.
func (ct *Ciphertext) Blocks() []Block {
	out := make([]Block, len(ct.blocks))
	for i, b := range ct.blocks {
		out[i] = Block{Gamma: new(big.Int).Set(b.Gamma), Delta: new(big.Int).Set(b.Delta)}
	}
	return out
}

// append is the only mutating operation on a Ciphertext. EncryptBytes does
// not call it: it fills its block slice directly.
func (ct *Ciphertext) append(gamma, delta *big.Int) {
	ct.blocks = append(ct.blocks, Block{Gamma: gamma, Delta: delta})
}

// Fingerprint is the SHA-256 over (cryptosystem fingerprint, bit-length,
// [gamma_i, delta_i]) in declared order.
func (ct *Ciphertext) Fingerprint() [32]byte {
	csFP := ct.cs.Fingerprint()
	enc := wire.NewEncoder().
		PutFingerprint(csFP).
		PutUint64(uint64(ct.bitLen))
	for _, b := range ct.blocks {
		enc.PutBigInt(b.Gamma).PutBigInt(b.Delta)
	}
	return enc.Sum256()
}

// EncryptBytes splits msg into blocks of (nbits-1) bits and ElGamal-encrypts
// each under pk, sampling a fresh randomizer per block. Block-independent
// work is parallelized with errgroup per spec.md §5.
func (pk *PublicKey) EncryptBytes(msg []byte, src randsrc.Source) (*Ciphertext, error) {
	cs := pk.cs
	blockBits := cs.MaxBlockBits()

	bs := group.NewBitStream()
	bs.WriteBytes(msg)
	bitLen := bs.Len()
	n := blockCount(bitLen, blockBits)

	blocks := make([]Block, n)
	g, p := cs.G(), cs.P()

	eg := new(errgroup.Group)
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			b := bs.ReadBigInt(i*blockBits, blockBits)
			r, err := cs.NewExponent(src)
			if err != nil {
				return err
			}
			gamma := new(big.Int).Exp(g, r, p)
			delta := new(big.Int).Exp(pk.h, r, p)
			m := new(big.Int).Add(b, big.NewInt(1))
			delta.Mul(delta, m)
			delta.Mod(delta, p)
			blocks[i] = Block{Gamma: gamma, Delta: delta}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &Ciphertext{cs: cs, bitLen: bitLen, blocks: blocks}, nil
}

// EncryptText is a convenience wrapper around EncryptBytes for text
// messages.
func (pk *PublicKey) EncryptText(msg string, src randsrc.Source) (*Ciphertext, error) {
	return pk.EncryptBytes([]byte(msg), src)
}

// DecryptToBytes reverses EncryptBytes: it recovers each block's cleartext
// integer via b = delta * (gamma^x)^-1 mod p - 1, then truncates the
// reassembled BitStream to the ciphertext's recorded bit-length.
func (sk *PrivateKey) DecryptToBytes(ct *Ciphertext) ([]byte, error) {
	if !sk.cs.Equal(ct.cs) {
		return nil, ErrIncompatibleCryptosystem
	}
	blockBits := sk.cs.MaxBlockBits()
	if len(ct.blocks) != blockCount(ct.bitLen, blockBits) {
		return nil, ErrInvalidCiphertext
	}

	p := sk.cs.P()
	blockVals := make([]*big.Int, len(ct.blocks))

	eg := new(errgroup.Group)
	for i, blk := range ct.blocks {
		i, blk := i, blk
		eg.Go(func() error {
			s := new(big.Int).Exp(blk.Gamma, sk.x, p)
			sInv := new(big.Int).ModInverse(s, p)
			if sInv == nil {
				return ErrInvalidCiphertext
			}
			m := new(big.Int).Mul(blk.Delta, sInv)
			m.Mod(m, p)
			if m.Sign() <= 0 {
				return ErrInvalidCiphertext
			}
			blockVals[i] = new(big.Int).Sub(m, big.NewInt(1))
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
	out.TruncateToBits(ct.bitLen)
	return out.Bytes(), nil
}

// DecryptToText is a convenience wrapper around DecryptToBytes.
func (sk *PrivateKey) DecryptToText(ct *Ciphertext) (string, error) {
	b, err := sk.DecryptToBytes(ct)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
