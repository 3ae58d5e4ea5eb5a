package cloud

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

const (
	// ErrorCodeInvalidActivityID the activity identifier is empty, so there is
	// no way to build a stable remote name for it.
	ErrorCodeInvalidActivityID ErrorCode = "invalid-activity-id"

	// ErrorCodeMissingFile the local file doesn't exist or is not a regular
	// file.
	ErrorCodeMissingFile ErrorCode = "missing-file"

	// ErrorCodeEmptyFile the local file exists but has no content yet.
	ErrorCodeEmptyFile ErrorCode = "empty-file"

	// ErrorCodeOpeningFile the local file exists but couldn't be opened for
	// reading.
	ErrorCodeOpeningFile ErrorCode = "opening-file"

	// ErrorCodeInitializingSession error connecting to the cloud server to
	// initialize the session.
	ErrorCodeInitializingSession ErrorCode = "initializing-session"

	// ErrorCodeBackendUnavailable the storage location of the cloud could not be
	// resolved or reached.
	ErrorCodeBackendUnavailable ErrorCode = "backend-unavailable"

	// ErrorCodeWriteRejected the cloud refused the write and retrying will not
	// change the answer (permission, naming policy).
	ErrorCodeWriteRejected ErrorCode = "write-rejected"

	// ErrorCodeWriteThrottled the cloud refused the write for a reason that
	// usually clears with time (quota, throttling, server errors).
	ErrorCodeWriteThrottled ErrorCode = "write-throttled"

	// ErrorCodePartialUpload the transfer was interrupted before the remote
	// object was complete. Remnants were discarded.
	ErrorCodePartialUpload ErrorCode = "partial-upload"

	// ErrorCodeComparingChecksums digest mismatch while comparing local file
	// hash with the remote object hash. The remote object was discarded.
	ErrorCodeComparingChecksums ErrorCode = "comparing-checksums"

	// ErrorCodeCancelled action cancelled by the user while the file was being
	// transferred. Remnants were discarded.
	ErrorCodeCancelled ErrorCode = "cancelled"
)

// ErrorCode stores the error type that occurred while performing any
// operation with the cloud.
type ErrorCode string

// String translate the error code to a human readable text.
func (e ErrorCode) String() string {
	switch e {
	case ErrorCodeInvalidActivityID:
		return "invalid activity identifier"
	case ErrorCodeMissingFile:
		return "local file not found"
	case ErrorCodeEmptyFile:
		return "local file is empty"
	case ErrorCodeOpeningFile:
		return "error opening local file"
	case ErrorCodeInitializingSession:
		return "error initializing cloud session"
	case ErrorCodeBackendUnavailable:
		return "cloud storage location unavailable"
	case ErrorCodeWriteRejected:
		return "cloud rejected the write"
	case ErrorCodeWriteThrottled:
		return "cloud temporarily rejected the write"
	case ErrorCodePartialUpload:
		return "upload interrupted before completion"
	case ErrorCodeComparingChecksums:
		return "error comparing checksums"
	case ErrorCodeCancelled:
		return "action cancelled by the user"
	}

	return "unknown error code"
}

// Kind groups the error codes in the failure classes that drive the retry
// decisions of the callers.
func (e ErrorCode) Kind() Kind {
	switch e {
	case ErrorCodeInvalidActivityID, ErrorCodeMissingFile, ErrorCodeEmptyFile, ErrorCodeOpeningFile:
		return KindLocalPrecondition
	case ErrorCodeInitializingSession, ErrorCodeBackendUnavailable:
		return KindBackendUnavailable
	case ErrorCodeWriteRejected, ErrorCodeWriteThrottled:
		return KindWriteRejected
	case ErrorCodePartialUpload, ErrorCodeComparingChecksums, ErrorCodeCancelled:
		return KindPartialUpload
	}

	return KindUnknown
}

const (
	// KindUnknown the error wasn't produced by a cloud service.
	KindUnknown Kind = ""

	// KindLocalPrecondition the caller handed an invalid request. The cloud was
	// never contacted and retrying will not help.
	KindLocalPrecondition Kind = "local-precondition"

	// KindBackendUnavailable the cloud storage location could not be reached.
	KindBackendUnavailable Kind = "backend-unavailable"

	// KindWriteRejected the cloud refused the write.
	KindWriteRejected Kind = "write-rejected"

	// KindPartialUpload the transfer didn't complete. No remote object is
	// presented as synced.
	KindPartialUpload Kind = "partial-upload"
)

// Kind is the failure class of an upload.
type Kind string

// Error stores error details from cloud operations.
type Error struct {
	ID   string
	Code ErrorCode
	Err  error
}

func newError(id string, code ErrorCode, err error) *Error {
	return &Error{
		ID:   id,
		Code: code,
		Err:  errors.WithStack(err),
	}
}

// Error returns the error in a human readable format.
func (e Error) Error() string {
	return e.String()
}

// String translate the error to a human readable text.
func (e Error) String() string {
	var id string
	if e.ID != "" {
		id = fmt.Sprintf("id “%s”, ", e.ID)
	}

	var err string
	if e.Err != nil {
		err = fmt.Sprintf(". details: %s", e.Err)
	}

	return fmt.Sprintf("cloud: %s%s%s", id, e.Code, err)
}

// Unwrap gives access to the low level error.
func (e Error) Unwrap() error {
	return e.Err
}

// Retryable returns true when another attempt could succeed. Local
// precondition problems and permanent write rejections are never retryable.
func (e Error) Retryable() bool {
	switch e.Code.Kind() {
	case KindBackendUnavailable, KindPartialUpload:
		return true
	case KindWriteRejected:
		return e.Code == ErrorCodeWriteThrottled
	}

	return false
}

// KindOf retrieves the failure class of an error returned by a cloud service,
// looking through any wrapping layer.
func KindOf(err error) (Kind, bool) {
	var cloudErr *Error
	if !stderrors.As(err, &cloudErr) {
		return KindUnknown, false
	}

	return cloudErr.Code.Kind(), true
}

// Retryable checks if the error returned by a cloud service allows another
// attempt. Unknown errors are not retried.
func Retryable(err error) bool {
	var cloudErr *Error
	if !stderrors.As(err, &cloudErr) {
		return false
	}

	return cloudErr.Retryable()
}

// ErrorEqual compares two Error objects. This is useful to compare down to the
// low level errors.
func ErrorEqual(first, second error) bool {
	if first == nil || second == nil {
		return first == second
	}

	err1, ok1 := errors.Cause(first).(*Error)
	err2, ok2 := errors.Cause(second).(*Error)

	if !ok1 || !ok2 {
		return false
	}

	if err1.ID != err2.ID || err1.Code != err2.Code {
		return false
	}

	errCause1 := errors.Cause(err1.Err)
	errCause2 := errors.Cause(err2.Err)

	if errCause1 == nil || errCause2 == nil {
		return errCause1 == errCause2
	}

	return errCause1.Error() == errCause2.Error()
}
