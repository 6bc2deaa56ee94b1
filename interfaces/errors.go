package interfaces

import (
	"errors"
)

var (
	// ErrUnauthorized is returned when the caller lacks the role an operation requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotRegistered is returned when removing a wallet that has no directory entry.
	ErrNotRegistered = errors.New("institution not registered")

	// ErrAlreadyRegistered is returned when adding a wallet that already has a directory entry.
	ErrAlreadyRegistered = errors.New("institution already registered")

	ErrCertificateNotFound = errors.New("certificate does not exist")
	ErrNotIssuer           = errors.New("not issuer of this certificate")
	ErrAlreadyRevoked      = errors.New("already revoked")

	// ErrDuplicateExternalID is returned when a non-empty external id is already used by any certificate.
	ErrDuplicateExternalID = errors.New("certificate already exists")

	// ErrPaused is returned by certificate mutations while the registry is paused.
	ErrPaused = errors.New("registry is paused")

	ErrEmptyCID             = errors.New("certificate cid is empty")
	ErrInvalidAddress       = errors.New("invalid wallet address")
	ErrInvalidCertificateID = errors.New("invalid certificate id")

	// ErrInvalidInput is returned when a text field is not valid UTF-8.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSequenceGap is returned by journals when an appended event does not directly follow the last one.
	ErrSequenceGap = errors.New("event sequence gap")

	ErrUnknownEventType = errors.New("unknown event type")
)

// Error codes are stable identifiers carried over the wire so that clients
// can map responses back onto the sentinel errors above.
const (
	CodeUnauthorized         = "unauthorized"
	CodeNotRegistered        = "not_registered"
	CodeAlreadyRegistered    = "already_registered"
	CodeNotFound             = "not_found"
	CodeNotIssuer            = "not_issuer"
	CodeAlreadyRevoked       = "already_revoked"
	CodeDuplicateExternalID  = "duplicate_external_id"
	CodePaused               = "paused"
	CodeEmptyCID             = "empty_cid"
	CodeInvalidAddress       = "invalid_address"
	CodeInvalidCertificateID = "invalid_certificate_id"
	CodeInvalidInput         = "invalid_input"
	CodeInternal             = "internal"
)

var codeErrors = []struct {
	code string
	err  error
}{
	{CodeUnauthorized, ErrUnauthorized},
	{CodeNotRegistered, ErrNotRegistered},
	{CodeAlreadyRegistered, ErrAlreadyRegistered},
	{CodeNotFound, ErrCertificateNotFound},
	{CodeNotIssuer, ErrNotIssuer},
	{CodeAlreadyRevoked, ErrAlreadyRevoked},
	{CodeDuplicateExternalID, ErrDuplicateExternalID},
	{CodePaused, ErrPaused},
	{CodeEmptyCID, ErrEmptyCID},
	{CodeInvalidAddress, ErrInvalidAddress},
	{CodeInvalidCertificateID, ErrInvalidCertificateID},
	{CodeInvalidInput, ErrInvalidInput},
}

// ErrorCode returns the wire code of the first registry sentinel err wraps, or CodeInternal.
func ErrorCode(err error) string {
	for _, ce := range codeErrors {
		if errors.Is(err, ce.err) {
			return ce.code
		}
	}
	return CodeInternal
}

// ErrorForCode is the inverse of ErrorCode. Unknown codes yield nil.
func ErrorForCode(code string) error {
	for _, ce := range codeErrors {
		if ce.code == code {
			return ce.err
		}
	}
	return nil
}
