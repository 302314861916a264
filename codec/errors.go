package codec

import "errors"

var (
	// ErrCodecNotFound is returned when a codec is not found in the registry
	ErrCodecNotFound = errors.New("codec not found")

	// ErrInvalidParameter is returned when a configuration field is out of domain
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidQuality is returned when the quality factor is out of range
	ErrInvalidQuality = errors.New("invalid quality (must be 0-100)")

	// ErrInvalidDimensions is returned when width or height is out of range
	ErrInvalidDimensions = errors.New("invalid image dimensions")

	// ErrInvalidSampling is returned when a sampling factor is outside 1-4
	ErrInvalidSampling = errors.New("invalid sampling factor (must be 1-4)")

	// ErrBlockBudgetExceeded is returned when the summed sampling factors
	// would put more than MaxBlocksPerMCU coded blocks into one MCU
	ErrBlockBudgetExceeded = errors.New("too many coded blocks per MCU")
)
