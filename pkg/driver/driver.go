package driver

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/nooga/jsinterop/pkg/config"
	"github.com/nooga/jsinterop/pkg/interop"
	"github.com/nooga/jsinterop/pkg/logging"
	"github.com/nooga/jsinterop/pkg/types"
	"github.com/nooga/jsinterop/pkg/vm"
)

// Engine is one interop session: a realm holding the script side objects,
// a converter for values crossing into host code and the native modules
// declared on it.
type Engine struct {
	cfg       config.Config
	logger    logrus.FieldLogger
	realm     *vm.Realm
	converter *interop.Converter

	mu      sync.Mutex
	modules map[string]*NativeModule
}

// New creates an engine configured by cfg. A nil logger discards output.
func New(cfg config.Config, logger logrus.FieldLogger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	cfg = config.NewConfig().Apply(cfg)

	realm := vm.NewRealm(
		vm.WithRealmMirrorLimit(int(cfg.MirrorLimit.Int64)),
		vm.WithRealmLogger(logger),
	)

	opts := []interop.Option{interop.WithLogger(logger), interop.WithRealm(realm)}
	if !cfg.ConversionCache.Bool {
		opts = append(opts, interop.WithoutCache())
	}

	return &Engine{
		cfg:       cfg,
		logger:    logger,
		realm:     realm,
		converter: interop.New(opts...),
		modules:   make(map[string]*NativeModule),
	}
}

// NewFromEnvironment consolidates the configuration from defaults, the JSON
// file at path (skipped when empty) and env, builds the logger it describes
// and returns an engine using both.
func NewFromEnvironment(fs afero.Fs, path string, env map[string]string) (*Engine, error) {
	bootstrap := logging.Discard()
	cfg, err := config.GetConsolidatedConfig(fs, path, env, bootstrap)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return nil, err
	}
	return New(cfg, logger), nil
}

// Config returns the effective configuration.
func (e *Engine) Config() config.Config { return e.cfg }

// Realm returns the realm in which script values are created.
func (e *Engine) Realm() *vm.Realm { return e.realm }

// Converter returns the engine's converter.
func (e *Engine) Converter() *interop.Converter { return e.converter }

// Logger returns the engine's logger.
func (e *Engine) Logger() logrus.FieldLogger { return e.logger }

// ToValue wraps a host value for script code.
func (e *Engine) ToValue(x interface{}) vm.Value {
	return e.realm.FromHost(x)
}

// Convert converts a script value to a host value described by target.
func (e *Engine) Convert(v vm.Value, target types.Type) (interface{}, error) {
	return e.converter.Convert(v, target)
}

// TryConvert is Convert reporting failure with a bool.
func (e *Engine) TryConvert(v vm.Value, target types.Type) (interface{}, bool) {
	return e.converter.TryConvert(v, target)
}

// CacheStats returns the convertibility cache counters, or zero stats when
// caching is disabled.
func (e *Engine) CacheStats() interop.CacheStats {
	if cache := e.converter.Cache(); cache != nil {
		return cache.Stats()
	}
	return interop.CacheStats{}
}
