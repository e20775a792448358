// Package interop converts script values into statically typed host values.
//
// A Converter applies a fixed rule chain: null, identity, property bag to
// struct, enum, callable to adapter, array, sequence and finally scalar
// coercion. TryConvert consults a ConversionCache that remembers which
// (source type, target) pairs are convertible at all.
package interop

import (
	"github.com/sirupsen/logrus"

	"github.com/nooga/jsinterop/pkg/logging"
	"github.com/nooga/jsinterop/pkg/vm"
)

// Option configures a Converter.
type Option func(*Converter)

// WithCache makes the converter record verdicts in cache instead of the
// process-wide DefaultCache.
func WithCache(cache *ConversionCache) Option {
	return func(c *Converter) {
		c.cache = cache
	}
}

// WithoutCache disables the convertibility cache; TryConvert then always
// runs the full conversion.
func WithoutCache() Option {
	return func(c *Converter) {
		c.cache = nil
	}
}

// WithLogger sets the logger used for cache and adapter diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRealm makes adapters build their script arguments in realm, so that
// objects and arrays passed to script callables get prototypes.
func WithRealm(realm *vm.Realm) Option {
	return func(c *Converter) {
		c.realm = realm
	}
}

// Converter turns dynamic values into host values described by types.Type.
// It is safe for concurrent use.
type Converter struct {
	cache  *ConversionCache
	realm  *vm.Realm
	logger logrus.FieldLogger
}

// New creates a Converter. Without options it shares DefaultCache and logs
// nothing.
func New(opts ...Option) *Converter {
	c := &Converter{
		cache:  DefaultCache(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache returns the cache in use, or nil when caching is disabled.
func (c *Converter) Cache() *ConversionCache { return c.cache }
