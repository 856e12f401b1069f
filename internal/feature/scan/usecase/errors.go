package usecase

import "errors"

// Usecase errors for scan operations.
var (
	// ErrInvalidParams indicates that the scan request is malformed.
	ErrInvalidParams = errors.New("invalid scan parameters")

	// ErrScanNotFound indicates that no scan exists with the given id.
	ErrScanNotFound = errors.New("scan not found")

	// ErrScanFinished indicates that the scan already reached a terminal state.
	ErrScanFinished = errors.New("scan already finished")
)
