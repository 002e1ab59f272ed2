package d2i

import "errors"

var (
	ErrInvalidFormat = errors.New("invalid D2I format")
	ErrUnknownID     = errors.New("unknown text id")
	ErrUnknownKey    = errors.New("unknown text key")
	ErrNoDiacritical = errors.New("no diacritical text")
)
