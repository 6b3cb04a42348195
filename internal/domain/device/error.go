package device

import "errors"

var (
	ErrDeviceNotFound       = errors.New("device not found")
	ErrRemoteDeviceNotFound = errors.New("device not registered on tracking server")
	ErrInvalidInput         = errors.New("invalid input")
)
