package d2o

import "errors"

var (
	ErrInvalidFormat        = errors.New("invalid D2O format")
	ErrUnknownClass         = errors.New("unknown class")
	ErrUnknownID            = errors.New("unknown object id")
	ErrUnknownQueryKey      = errors.New("unknown query key")
	ErrUnsupportedQueryType = errors.New("unsupported query value type")
	ErrTooDeep              = errors.New("objects nested too deeply")
)
