package pipeline

import "errors"

// Sentinel error kinds. Callers match with errors.Is; wrapped messages carry
// the detail.
var (
	ErrDataUnavailable = errors.New("market data unavailable")
	ErrLowQuality      = errors.New("data quality below abort floor")
	ErrConfig          = errors.New("invalid pipeline configuration")
)
