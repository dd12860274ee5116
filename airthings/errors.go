package airthings

import (
	"github.com/pkg/errors"
)

var (
	ErrDeviceNotFound = errors.New("could not find device; " +
		"(1) verify the serial number, (2) ensure that the device is advertising, (3) retry connection")

	ErrConnectionFailed = errors.New("failed to connect; check if device is on and if you are close enough")

	ErrNotConnected = errors.New("device is not connected")

	ErrUnsupportedVersion = errors.New("unknown sensor version; contact Airthings for support")

	ErrInvalidFrame = errors.New("invalid sensor frame")
)

// IsFatal reports errors after which polling must stop.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDeviceNotFound) ||
		errors.Is(err, ErrNotConnected) ||
		errors.Is(err, ErrUnsupportedVersion)
}

// IsRecoverable reports errors that only cost the current poll cycle.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrConnectionFailed) || errors.Is(err, ErrInvalidFrame)
}

// connectionError keeps the transport cause while classifying as ErrConnectionFailed.
type connectionError struct {
	op    string
	cause error
}

func connectionFailed(op string, cause error) error {
	return &connectionError{op: op, cause: cause}
}

func (e *connectionError) Error() string {
	return e.op + ": " + e.cause.Error() + ": " + ErrConnectionFailed.Error()
}

func (e *connectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

func (e *connectionError) Unwrap() error {
	return e.cause
}

func (e *connectionError) Cause() error {
	return e.cause
}
