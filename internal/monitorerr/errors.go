// Package monitorerr defines the error types raised while checking a target.
//
// Every type wraps its cause and is matched with errors.As. Scheduler code
// catches all of them at the target boundary and records them as events.
package monitorerr

import "fmt"

// FetchError reports a failed fetch of a single page. It is retried on the
// next scheduled check, never immediately.
type FetchError struct {
	ThreadID int64
	Page     int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch thread %d page %d: %v", e.ThreadID, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MetadataError reports that page 1 could not be fetched, so the check was
// aborted without touching the watermark.
type MetadataError struct {
	ThreadID int64
	Err      error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("fetch metadata for thread %d: %v", e.ThreadID, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// StoreError reports a persistence failure. The watermark is not advanced.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NotifyError reports that a notification channel failed to deliver.
type NotifyError struct {
	Channel string
	Err     error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify via %s: %v", e.Channel, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }
