package goShield

import "errors"

var (
	// ErrHostRejected is an exported constant or variable used by the security pipeline.
	ErrHostRejected = errors.New("host not allowed")
	// ErrCsrfRejected is an exported constant or variable used by the security pipeline.
	ErrCsrfRejected = errors.New("CSRF token missing or invalid")
	// ErrBodyRejected is an exported constant or variable used by the security pipeline.
	ErrBodyRejected = errors.New("unsupported request body")
	// ErrPipelineNotReady is an exported constant or variable used by the security pipeline.
	ErrPipelineNotReady = errors.New("pipeline not initialized")
	// ErrPipelineClosed is an exported constant or variable used by the security pipeline.
	ErrPipelineClosed = errors.New("pipeline closed")
	// ErrSecretTooShort is an exported constant or variable used by the security pipeline.
	ErrSecretTooShort = errors.New("secret key must be at least 32 bytes")
	// ErrNoHostPatterns is an exported constant or variable used by the security pipeline.
	ErrNoHostPatterns = errors.New("allowed host patterns required unless bypass is set")
	// ErrStoreRequired is an exported constant or variable used by the security pipeline.
	ErrStoreRequired = errors.New("session store required")
)
