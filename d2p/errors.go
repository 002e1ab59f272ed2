package d2p

import "errors"

var (
	ErrInvalidFormat = errors.New("invalid D2P format")
	ErrUnknownFile   = errors.New("file not in archive")
	ErrLinkCycle     = errors.New("archive link cycle")
	ErrClosed        = errors.New("archive closed")
)
