package media

import "errors"

// Errors returned by the comfort noise decoder.
var (
	// ErrInvalidConfig indicates a configuration value outside the supported range.
	ErrInvalidConfig = errors.New("media: invalid comfort noise configuration")

	// ErrAllocationFailed indicates the decoder buffers could not be allocated.
	ErrAllocationFailed = errors.New("media: comfort noise buffer allocation failed")

	// ErrBufferTooSmall indicates the output buffer cannot hold one frame.
	ErrBufferTooSmall = errors.New("media: output buffer too small")

	// ErrDecoderClosed indicates the decoder was used after Close.
	ErrDecoderClosed = errors.New("media: decoder closed")
)
