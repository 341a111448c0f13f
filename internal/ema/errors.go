package ema

import "errors"

// Sentinel errors for the ema package.
// Use errors.Is to check: errors.Is(err, ema.ErrInvalidScore)
var (
	ErrInvalidScore  = errors.New("ema: score is not a finite number")
	ErrInvalidConfig = errors.New("ema: config out of bounds")
)
