package auto

import "errors"

var (
	ErrNameTaken         = errors.New("name already registered")
	ErrInvalidName       = errors.New("invalid command name")
	ErrNilFactory        = errors.New("nil command factory")
	ErrScriptUnavailable = errors.New("script unavailable")
	ErrLengthMismatch    = errors.New("names and argument lists differ in length")
)
