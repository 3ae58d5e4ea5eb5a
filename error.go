package tocloud

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	// ErrorCodeNoServices there's no cloud service configured to receive the
	// activity files.
	ErrorCodeNoServices ErrorCode = "no-services"

	// ErrorCodeSyncFailed the file couldn't be sent to the clouds. The low level
	// error is the last problem reported by a cloud service.
	ErrorCodeSyncFailed ErrorCode = "sync-failed"

	// ErrorCodeLocking the context was done while waiting for another upload of
	// the same activity to finish.
	ErrorCodeLocking ErrorCode = "locking"

	// ErrorCodeSavingRecord error while storing the upload in the local ledger.
	// The file is already in the cloud.
	ErrorCodeSavingRecord ErrorCode = "saving-record"

	// ErrorCodeNoStorage there's no local ledger configured.
	ErrorCodeNoStorage ErrorCode = "no-storage"

	// ErrorCodeListingRecords error while listing the local ledger.
	ErrorCodeListingRecords ErrorCode = "listing-records"

	// ErrorCodeBuildingReport error while building the report content.
	ErrorCodeBuildingReport ErrorCode = "building-report"

	// ErrorCodeSendingEmail error while sending the report by e-mail.
	ErrorCodeSendingEmail ErrorCode = "sending-email"

	// ErrorCodeQueueFull the background queue has no room for another request.
	ErrorCodeQueueFull ErrorCode = "queue-full"

	// ErrorCodeQueueClosed the background queue is not accepting requests
	// anymore.
	ErrorCodeQueueClosed ErrorCode = "queue-closed"
)

// ErrorCode stores the error type that occurred while processing commands from
// tocloud.
type ErrorCode string

// String translate the error code to a human readable text.
func (e ErrorCode) String() string {
	switch e {
	case ErrorCodeNoServices:
		return "no cloud service configured"
	case ErrorCodeSyncFailed:
		return "error syncing file with the clouds"
	case ErrorCodeLocking:
		return "error waiting for the activity upload in progress"
	case ErrorCodeSavingRecord:
		return "error saving the sync record"
	case ErrorCodeNoStorage:
		return "no local storage configured"
	case ErrorCodeListingRecords:
		return "error listing the sync records"
	case ErrorCodeBuildingReport:
		return "error building report"
	case ErrorCodeSendingEmail:
		return "error sending report e-mail"
	case ErrorCodeQueueFull:
		return "sync queue is full"
	case ErrorCodeQueueClosed:
		return "sync queue is closed"
	}

	return "unknown error code"
}

// Error stores error details from a problem occurred while executing high level
// commands from tocloud.
type Error struct {
	ID       string
	Services []string
	Code     ErrorCode
	Err      error
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

	var services string
	if e.Services != nil {
		services = fmt.Sprintf("services [%s], ", strings.Join(e.Services, ", "))
	}

	var err string
	if e.Err != nil {
		err = fmt.Sprintf(". details: %s", e.Err)
	}

	return fmt.Sprintf("tocloud: %s%s%s%s", id, services, e.Code, err)
}

// Unwrap gives access to the low level error, so the failure class of a cloud
// problem can be retrieved with cloud.KindOf.
func (e Error) Unwrap() error {
	return e.Err
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

	if err1.ID != err2.ID || err1.Code != err2.Code || strings.Join(err1.Services, ",") != strings.Join(err2.Services, ",") {
		return false
	}

	errCause1 := errors.Cause(err1.Err)
	errCause2 := errors.Cause(err2.Err)

	if errCause1 == nil || errCause2 == nil {
		return errCause1 == errCause2
	}

	return errCause1.Error() == errCause2.Error()
}
