package bench

import (
	"errors"
	"fmt"
)

// Kind selects the channel flavor under test.
type Kind string

const (
	KindGeneric Kind = "generic"
	KindBytes   Kind = "bytes"
	KindMapped  Kind = "mapped"
)

// Kinds lists every supported Kind.
var Kinds = []Kind{KindGeneric, KindBytes, KindMapped}

// minItemSize leaves room for the uint64 sequence number each item carries.
const minItemSize = 8

// Config describes one benchmark run.
type Config struct {
	Kind             Kind
	Producers        int
	Consumers        int
	ItemsPerProducer int
	Capacity         int // 0 for an unbounded channel
	InitialCapacity  int // unbounded only; 0 keeps the channel default
	MaxCapacity      int // unbounded only; 0 means no limit
	ItemSize         int // bytes and mapped only
	Path             string
}

// Default mirrors the reference benchmark: one producer pushing ten million
// items through a channel of ten thousand slots.
func Default() Config {
	return Config{
		Kind:             KindGeneric,
		Producers:        1,
		Consumers:        1,
		ItemsPerProducer: 10_000_000,
		Capacity:         10_000,
		ItemSize:         minItemSize,
		Path:             "chanbench.bin",
	}
}

func (c Config) Validate() error {
	var errs []error

	switch c.Kind {
	case KindGeneric, KindBytes:
	case KindMapped:
		if c.Path == "" {
			errs = append(errs, errors.New("mapped channel needs a path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown kind %q", c.Kind))
	}

	if c.Producers < 1 {
		errs = append(errs, errors.New("at least one producer is required"))
	}

	if c.Consumers < 1 {
		errs = append(errs, errors.New("at least one consumer is required"))
	}

	if c.ItemsPerProducer < 0 {
		errs = append(errs, errors.New("items per producer must not be negative"))
	}

	if c.Capacity < 0 {
		errs = append(errs, errors.New("capacity must not be negative"))
	}

	if c.Kind != KindGeneric && c.ItemSize < minItemSize {
		errs = append(errs, fmt.Errorf("item size must be at least %d bytes", minItemSize))
	}

	return errors.Join(errs...)
}
