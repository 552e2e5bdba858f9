package bazi

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidInput   = errors.New("invalid birth input")
	ErrUnknownElement = errors.New("unknown element")
)
