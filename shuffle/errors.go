package shuffle

import "errors"

var (
	// ErrIncompatibleCryptosystem is returned when a ciphertext's
	// cryptosystem does not match a collection's.
	ErrIncompatibleCryptosystem = errors.New("shuffle: incompatible cryptosystem")
	// ErrBlockCountMismatch is returned when a ciphertext's block count
	// disagrees with every other ciphertext already in the collection.
	ErrBlockCountMismatch = errors.New("shuffle: block count mismatch")
	// ErrInvalidShuffleProof is returned when a ShufflingProof fails to
	// verify, whether from a malformed transcript or a failed per-branch
	// check.
	ErrInvalidShuffleProof = errors.New("shuffle: invalid shuffle proof")
)
