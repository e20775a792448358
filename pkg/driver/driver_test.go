package driver

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/nooga/jsinterop/pkg/config"
	"github.com/nooga/jsinterop/pkg/errors"
	"github.com/nooga/jsinterop/pkg/interop"
	"github.com/nooga/jsinterop/pkg/types"
	"github.com/nooga/jsinterop/pkg/vm"
)

func TestNewAppliesConfig(t *testing.T) {
	t.Parallel()
	e := New(config.Config{
		ConversionCache: null.BoolFrom(false),
		MirrorLimit:     null.IntFrom(2),
	}, nil)
	assert.Nil(t, e.Converter().Cache())
	assert.Equal(t, interop.CacheStats{}, e.CacheStats())
	assert.Equal(t, "warning", e.Config().LogLevel.String)

	backing := []string{}
	arr, err := e.Realm().NewArrayFromHost(&backing)
	require.NoError(t, err)
	require.NoError(t, arr.Put("1", vm.NewString("b"), true))
	err = arr.Put("2", vm.NewString("c"), true)
	assert.True(t, errors.IsRangeError(err))
}

func TestEngineConvertUsesCache(t *testing.T) {
	t.Parallel()
	e := New(config.NewConfig(), nil)
	require.NotNil(t, e.Converter().Cache())
	assert.Same(t, interop.DefaultCache(), e.Converter().Cache())

	out, err := e.Convert(vm.NewString("12"), types.Int)
	require.NoError(t, err)
	assert.Equal(t, 12, out)

	before := e.CacheStats()
	out, ok := e.TryConvert(vm.BooleanValue(true), types.Uint16)
	require.True(t, ok)
	assert.Equal(t, uint16(1), out)
	after := e.CacheStats()
	assert.GreaterOrEqual(t, after.Hits+after.Misses, before.Hits+before.Misses+1)
}

func TestEngineToValue(t *testing.T) {
	t.Parallel()
	e := New(config.NewConfig(), nil)

	v := e.ToValue(map[string]interface{}{"list": []int{1, 2}})
	obj := v.AsPlainObject()
	require.NotNil(t, obj)
	assert.Same(t, e.Realm().ObjectPrototype, obj.Prototype())

	list, ok := obj.GetOwn("list")
	require.True(t, ok)
	assert.Equal(t, uint32(2), list.AsArray().Length())
	assert.True(t, e.ToValue(nil).IsNull())
}

func TestNewFromEnvironment(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/jsinterop.json", []byte(`{"logLevel": "debug", "mirrorLimit": 8}`), 0o644))

	e, err := NewFromEnvironment(fs, "/jsinterop.json", map[string]string{"JSINTEROP_CONVERSION_CACHE": "false"})
	require.NoError(t, err)
	assert.Equal(t, int64(8), e.Config().MirrorLimit.Int64)
	assert.Nil(t, e.Converter().Cache())

	logger, ok := e.Logger().(*logrus.Logger)
	require.True(t, ok)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	_, err = NewFromEnvironment(fs, "/absent.json", nil)
	assert.Error(t, err)
	_, err = NewFromEnvironment(fs, "", map[string]string{"JSINTEROP_LOG_FORMAT": "yaml"})
	assert.Error(t, err)
}
