package channel

import "fmt"

type channelError string

var _ error = channelError("")

func (err channelError) Error() string {
	return string(err)
}

const (
	ErrAllocation = channelError("channel storage cannot be allocated")
	ErrItemSize   = channelError("item size must be at least 1 byte")
	ErrCapacity   = channelError("capacity must not be negative")
	ErrClosed     = channelError("channel is closed")
	ErrCorrupt    = channelError("channel file is corrupt or incompatible")
)

// errorf wraps cause under one of the sentinel errors.
func errorf(sentinel channelError, cause error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}
