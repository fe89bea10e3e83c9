// Package errcode implements the error taxonomy from the AnonCreds core
// design: a small, stable set of error kinds that every engine converts
// external and internal failures into at its boundary, plus the integer
// codes the FFI/handle surface maps them to.
package errcode

import (
	"fmt"

	"github.com/gravitational/trace"
)

// Code is the stable integer code exposed across the FFI boundary.
type Code int32

const (
	CodeInvalidStructure       Code = 1
	CodeInvalidState           Code = 2
	CodeNotFound               Code = 3
	CodeAlreadyExists          Code = 4
	CodeInvalidProof           Code = 5
	CodeInvalidUserRevocId     Code = 6
	CodeRevocationRegistryFull Code = 7
	CodeTailsMismatch          Code = 8
	CodeCrypto                 Code = 9
	CodeTransport              Code = 10
	CodeLedger                 Code = 11
	CodeInsufficientFunds      Code = 12
	CodeNoPaymentInformation   Code = 13
)

// taggedError carries a stable Code alongside a wrapped cause so that
// errors.As-style introspection and the FFI code mapping both work off the
// same value.
type taggedError struct {
	code  Code
	cause error
}

func (e *taggedError) Error() string { return e.cause.Error() }
func (e *taggedError) Unwrap() error { return e.cause }

// GetCode returns the stable FFI code for err. When err was not produced
// by this package (e.g. a raw trace.NotFound bubbling up), it falls back to
// a mapping based on the underlying trace error kind, and to CodeCrypto
// when no kind matches.
func GetCode(err error) Code {
	if err == nil {
		return 0
	}
	var tagged *taggedError
	if tErr, ok := trace.Unwrap(err).(*taggedError); ok {
		tagged = tErr
	} else if tErr, ok := err.(*taggedError); ok {
		tagged = tErr
	}
	if tagged != nil {
		return tagged.code
	}
	switch {
	case trace.IsNotFound(err):
		return CodeNotFound
	case trace.IsAlreadyExists(err):
		return CodeAlreadyExists
	case trace.IsBadParameter(err), trace.IsCompareFailed(err):
		return CodeInvalidStructure
	case trace.IsConnectionProblem(err):
		return CodeTransport
	default:
		return CodeCrypto
	}
}

func tag(code Code, cause error) error {
	return trace.Wrap(&taggedError{code: code, cause: cause})
}

// InvalidStructure wraps a malformed-input or qualification-mismatch error.
func InvalidStructure(format string, args ...interface{}) error {
	return tag(CodeInvalidStructure, trace.BadParameter(format, args...))
}

// InvalidState reports an operation invoked from the wrong state-machine state.
func InvalidState(format string, args ...interface{}) error {
	return tag(CodeInvalidState, fmt.Errorf(format, args...))
}

// NotFound reports a missing record or handle.
func NotFound(format string, args ...interface{}) error {
	return tag(CodeNotFound, trace.NotFound(format, args...))
}

// AlreadyExists reports a duplicate cred-def, master secret, or pairwise.
func AlreadyExists(format string, args ...interface{}) error {
	return tag(CodeAlreadyExists, trace.AlreadyExists(format, args...))
}

// InvalidProof reports a structural proof-verification inconsistency,
// distinct from verify_proof returning (false, nil) for a well-formed but
// invalid proof.
func InvalidProof(format string, args ...interface{}) error {
	return tag(CodeInvalidProof, fmt.Errorf(format, args...))
}

// InvalidUserRevocId reports a revoke/recover call against an index in the
// wrong set for the registry's issuance type.
func InvalidUserRevocId(format string, args ...interface{}) error {
	return tag(CodeInvalidUserRevocId, fmt.Errorf(format, args...))
}

// RevocationRegistryFull reports curr_id exceeding max_cred_num.
func RevocationRegistryFull(format string, args ...interface{}) error {
	return tag(CodeRevocationRegistryFull, fmt.Errorf(format, args...))
}

// TailsMismatch reports a tails blob hash mismatch against a registry def.
func TailsMismatch(format string, args ...interface{}) error {
	return tag(CodeTailsMismatch, fmt.Errorf(format, args...))
}

// Crypto wraps a primitive failure surfaced by a crypto.Provider.
func Crypto(err error) error {
	if err == nil {
		return nil
	}
	return tag(CodeCrypto, trace.Wrap(err))
}

// Transport wraps an external IO failure that is not ledger-specific.
func Transport(err error) error {
	if err == nil {
		return nil
	}
	return tag(CodeTransport, trace.Wrap(err))
}

// Ledger wraps an external ledger IO failure.
func Ledger(err error) error {
	if err == nil {
		return nil
	}
	return tag(CodeLedger, trace.Wrap(err))
}

// InsufficientFunds reports a payment-path failure.
func InsufficientFunds(format string, args ...interface{}) error {
	return tag(CodeInsufficientFunds, fmt.Errorf(format, args...))
}

// NoPaymentInformation reports that a ledger operation required a payment
// address and none was supplied. Preserved per spec even though payment
// integration itself is optional.
func NoPaymentInformation() error {
	return tag(CodeNoPaymentInformation, fmt.Errorf("no payment information supplied"))
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}
