package elgamal

import "errors"

var (
	// ErrIncompatibleCryptosystem is returned whenever an operation mixes
	// objects bound to different Cryptosystem fingerprints.
	ErrIncompatibleCryptosystem = errors.New("elgamal: incompatible cryptosystem")
	// ErrInvalidCiphertext is returned when a ciphertext's block count is
	// inconsistent with its recorded cleartext bit-length, or when loaded
	// ciphertext blocks are not elements of the expected group.
	ErrInvalidCiphertext = errors.New("elgamal: invalid ciphertext")
	// ErrInvalidPublicKey is returned when a loaded public key element is
	// not a member of the bound cryptosystem's subgroup.
	ErrInvalidPublicKey = errors.New("elgamal: invalid public key")
)
