package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrUnknownInstrument = fmt.Errorf("%w: unknown instrument", ErrInvalidRequest)
	ErrOrderIDsExhausted = errors.New("order id space exhausted")
)
