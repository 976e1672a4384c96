// Package fota downloads firmware images and drives them into an update
// target, one attempt at a time.
package fota

import "fmt"

// EventID tags a download notification.
type EventID int

const (
	EventProgress EventID = iota
	EventCancelled
	EventError
	EventFinished
)

var eventNames = map[EventID]string{
	EventProgress:  "progress",
	EventCancelled: "cancelled",
	EventError:     "error",
	EventFinished:  "finished",
}

func (e EventID) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// ErrorCause explains a failed download.
type ErrorCause int

const (
	CauseNoError ErrorCause = iota
	CauseDownloadFailed
	CauseInvalidUpdate
	CauseTypeMismatch
	CauseInternal
)

var causeNames = map[ErrorCause]string{
	CauseNoError:        "no_error",
	CauseDownloadFailed: "download_failed",
	CauseInvalidUpdate:  "invalid_update",
	CauseTypeMismatch:   "type_mismatch",
	CauseInternal:       "internal",
}

func (c ErrorCause) String() string {
	if name, ok := causeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cause_%d", int(c))
}

// Event is one download notification. Progress events repeat during the
// transfer; Cancelled, Error and Finished are terminal and arrive exactly
// once per attempt, last.
type Event struct {
	ID         EventID
	Cause      ErrorCause
	BytesDone  int64
	BytesTotal int64
}
