package bin

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated       = errors.New("truncated input")
	ErrInvalidEncoding = errors.New("invalid encoding")
)

// DataError describes a failure to decode the data at a given offset.
// Err is usually ErrTruncated or ErrInvalidEncoding, but callers may wrap
// their own sentinels via Errorf.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

// Errorf returns a *DataError for data at off.
func Errorf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const before = 16
	const after = 32
	n := len(e.Data)
	start, end := max(0, min(e.Off, n)-before), min(n, max(e.Off, 0)+after)
	var prefix, suffix string
	if start > 0 {
		prefix = "..."
	}
	if end < n {
		suffix = "..."
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v at 0x%x: (%d) %s%x%s", e.Msg, e.Err, e.Off, n, prefix, e.Data[start:end], suffix)
	} else {
		return fmt.Sprintf("%s at 0x%x: (%d) %s%x%s", e.Msg, e.Off, n, prefix, e.Data[start:end], suffix)
	}
}
