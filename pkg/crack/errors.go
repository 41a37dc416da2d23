package crack

import "errors"

var (
	// ErrCapacityExceeded means a result sink or a meet-in-the-middle
	// table hit its configured maximum entry count. The results produced
	// up to that point are returned alongside it; they must not be
	// mistaken for an exhaustive answer.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrLengthOutOfRange means a requested candidate length exceeds
	// MaxCandidateLength (or is not positive). Detected before any
	// enumeration begins.
	ErrLengthOutOfRange = errors.New("candidate length out of range")

	// ErrInvalidAlphabet means an alphabet is empty, contains duplicate
	// characters, or contains non-ASCII bytes.
	ErrInvalidAlphabet = errors.New("invalid alphabet")

	// ErrFilterSizeMismatch means an n-gram filter table does not have
	// the exact byte size the configured alphabet requires.
	ErrFilterSizeMismatch = errors.New("n-gram filter size mismatch")
)
