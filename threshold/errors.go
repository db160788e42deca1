package threshold

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteSetup is returned when an output is requested from a
	// SetUp before all n trustee commitments (or public
	// keys) have been registered.
	ErrIncompleteSetup = errors.New("threshold: setup is incomplete")
	// ErrSetupSealed is returned when a registration is attempted against a
	// SetUp that has already produced an output.
	ErrSetupSealed = errors.New("threshold: setup is sealed, no further registrations accepted")
	// ErrDuplicateTrustee is returned when the same trustee index is
	// registered twice (public key or commitment).
	ErrDuplicateTrustee = errors.New("threshold: trustee index already registered")
	// ErrInvalidPrivateKey is returned when the private key passed to
	// GenerateKeyPair does not match the registered public key for that
	// trustee index.
	ErrInvalidPrivateKey = errors.New("threshold: private key does not match registered public key")
	// ErrNotEnoughShares is returned when DecryptToBytes is called before k
	// distinct partial decryptions have been accepted.
	ErrNotEnoughShares = errors.New("threshold: fewer than k partial decryptions accepted")
	// ErrInvalidPartialDecryptionProof is returned when a partial
	// decryption's Chaum-Pedersen proof fails verification.
	ErrInvalidPartialDecryptionProof = errors.New("threshold: partial decryption proof failed verification")
	// ErrInvalidCiphertext mirrors elgamal.ErrInvalidCiphertext for
	// threshold-specific decode failures (header/plaintext inconsistency).
	ErrInvalidCiphertext = errors.New("threshold: invalid ciphertext")
	// ErrDuplicatePartialDecryption is returned when the same trustee index
	// submits a second partial decryption to the same Combinator.
	ErrDuplicatePartialDecryption = errors.New("threshold: partial decryption already accepted for this trustee")
)

// InvalidCommitmentError reports that the Pedersen-VSS verification check
// failed for the share contributed by trustee TrusteeIndex, i.e. the
// revealed share does not match that trustee's public coefficients. This
// is the protocol's fraud/corruption signal and is never retried inside
// the core.
type InvalidCommitmentError struct {
	TrusteeIndex int
}

func (e *InvalidCommitmentError) Error() string {
	return fmt.Sprintf("threshold: commitment from trustee %d failed verifiable secret sharing check", e.TrusteeIndex)
}
