package tikakit

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrProcessing          = errors.New("document processing failed")
	ErrSerialization       = errors.New("malformed engine payload")
	ErrEncrypted           = errors.New("document is encrypted")
	ErrNotExist            = errors.New("document does not exist")
	ErrNotAllowed          = errors.New("reference not allowed")
	ErrSourceNotFound      = errors.New("no source registered for scheme")
	ErrEngineNotRegistered = errors.New("engine not registered")
	ErrNilEngine           = errors.New("engine cannot be nil")
	ErrNilSource           = errors.New("source cannot be nil")
	ErrEmptyReference      = errors.New("reference cannot be empty")
)

// encryptedMarker is the diagnostic fragment engines embed for protected documents.
const encryptedMarker = "document is encrypted"

// ProcessingError records a failure of the engine to fetch, parse or decrypt
// the document behind Ref.
type ProcessingError struct {
	Op  string
	Ref string
	Err error
}

// NewProcessingError wraps err with the operation and reference that caused it.
// An error that already is a *ProcessingError or *SerializationError is
// returned unchanged.
func NewProcessingError(op, ref string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return err
	}
	var se *SerializationError
	if errors.As(err, &se) {
		return err
	}
	return &ProcessingError{Op: op, Ref: ref, Err: err}
}

// Error implements the error interface
func (e *ProcessingError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Ref, e.Err)
}

// Unwrap returns the underlying error
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrProcessing) true for every ProcessingError.
func (e *ProcessingError) Is(target error) bool {
	return target == ErrProcessing
}

// SerializationError records an engine payload that could not be decoded into
// the expected result structure.
type SerializationError struct {
	Op      string
	Payload string
	Err     error
}

// maxPayloadInError bounds how much of a bad payload is echoed back.
const maxPayloadInError = 256

// Error implements the error interface
func (e *SerializationError) Error() string {
	payload := e.Payload
	if len(payload) > maxPayloadInError {
		payload = payload[:maxPayloadInError] + "..."
	}
	if payload == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v (payload %q)", e.Op, e.Err, payload)
}

// Unwrap returns the underlying error
func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSerialization) true for every SerializationError.
func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}

// IsEncrypted reports whether err was caused by a document that is encrypted
// and could not be opened with the supplied password (if any).
func IsEncrypted(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrEncrypted) || strings.Contains(err.Error(), encryptedMarker)
}

// IsNotExist reports whether an error indicates that the referenced document
// does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsNotAllowed reports whether an error indicates that the reference was
// rejected by an access policy
func IsNotAllowed(err error) bool {
	return errors.Is(err, ErrNotAllowed)
}
