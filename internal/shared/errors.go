package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrInvalidPath   = fmt.Errorf("path does not exist")

	// Store errors
	ErrIO       = fmt.Errorf("i/o failure")
	ErrParse    = fmt.Errorf("document could not be decoded")
	ErrNotFound = fmt.Errorf("document not found")
	ErrNoPlayer = fmt.Errorf("no local players found in player data")

	// Device errors
	ErrNoDevices      = fmt.Errorf("no devices found, make sure the headset is connected and USB debugging is enabled")
	ErrDeviceNotReady = fmt.Errorf("device is not ready, authorize it in the headset")
	ErrSessionClosed  = fmt.Errorf("transport session is closed")

	// Session errors
	ErrAborted         = fmt.Errorf("sync aborted")
	ErrSnapshotMissing = fmt.Errorf("snapshot not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// EntryError reports a single collection entry that was skipped while listing.
type EntryError struct {
	Name string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("skipped %s: %v", e.Name, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must end the process rather than a single category.
//
// A missing player document is fatal since there is no sensible default profile.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range []error{ErrNoDevices, ErrDeviceNotReady, ErrNoPlayer, ErrNotFound} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
