package container

import "github.com/joshuapare/corekit/core/hashfn"

// Option configures a hash container keyed by K.
type Option[K comparable] func(*options[K])

type options[K comparable] struct {
	hash func(K) uint32
}

// WithHasher replaces the default hasher from core/hashfn.
func WithHasher[K comparable](h func(K) uint32) Option[K] {
	return func(o *options[K]) { o.hash = h }
}

func buildOptions[K comparable](opts []Option[K]) options[K] {
	o := options[K]{hash: hashfn.For[K]()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
