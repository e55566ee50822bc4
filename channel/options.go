package channel

import "go.uber.org/zap"

// DefaultInitialCapacity is the starting slot count of an unbounded channel.
const DefaultInitialCapacity = 16

type options struct {
	initialCapacity int
	maxCapacity     int
	logger          *zap.Logger
}

// Option configures a channel at creation time.
type Option func(*options)

// WithInitialCapacity sets the starting slot count of an unbounded channel.
// It has no effect on bounded channels.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.initialCapacity = n
		}
	}
}

// WithMaxCapacity caps the growth of an unbounded channel. A growth step that
// would exceed n fails like an allocation failure: the Send is rejected and
// the channel keeps its current storage. Zero means no limit.
func WithMaxCapacity(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxCapacity = n
		}
	}
}

// WithLogger receives growth and close events. Send and Receive never log.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		initialCapacity: DefaultInitialCapacity,
		logger:          zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// slots returns the ring size to allocate for a requested capacity.
func (o options) slots(capacity int) int {
	if capacity == 0 {
		return o.initialCapacity
	}

	return capacity
}
