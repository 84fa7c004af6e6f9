package pool

import "errors"

var (
	// ErrAllocationFailed indicates that backing storage or the slot directory
	// could not be obtained.
	ErrAllocationFailed = errors.New("pool: allocation failed")

	// ErrInvalidHandle indicates an operation on a nil or closed pool.
	ErrInvalidHandle = errors.New("pool: invalid or closed pool")

	// ErrInvalidArgument indicates a bad parameter, such as a non-positive
	// object size or an empty payload.
	ErrInvalidArgument = errors.New("pool: invalid argument")

	// ErrUnknownObject indicates a payload that does not belong to the pool or
	// whose slot is already free.
	ErrUnknownObject = errors.New("pool: object not live in this pool")

	// ErrBadRef indicates a reference outside the directory or to a free slot.
	ErrBadRef = errors.New("pool: bad slot reference")

	// ErrReleaseFailed indicates that backing storage could not be returned
	// to its store while closing.
	ErrReleaseFailed = errors.New("pool: release failed")

	// ErrCorrupt indicates that Validate found a broken invariant.
	ErrCorrupt = errors.New("pool: invariant violated")
)
