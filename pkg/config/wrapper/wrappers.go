package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/dexproxy/proxy-client/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// Converter turns a raw source value into T. Environment sources yield []byte.
type Converter[T any] func(raw interface{}) (T, error)

// TypedConfig wraps a raw config source with a conversion and a default.
type TypedConfig[T any] struct {
	override     config.Config
	defaultValue T
	convert      Converter[T]

	stateMu   sync.RWMutex
	lastValue T
}

// New returns a typed wrapper over override
func New[T any](override config.Config, defaultValue T, convert Converter[T]) *TypedConfig[T] {
	return &TypedConfig[T]{
		override:     override,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *TypedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	raw, err := c.override.Get(ctx)

	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()

	if err == config.ErrNoValue {
		c.set(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	newValue, err := c.convert(raw)
	if err != nil {
		return lastValue, err
	}
	c.set(newValue)
	return newValue, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *TypedConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *TypedConfig[T]) Shutdown() {
	c.override.Shutdown()
}

func (c *TypedConfig[T]) set(v T) {
	c.stateMu.Lock()
	c.lastValue = v
	c.stateMu.Unlock()
}

// NewBytesConfig returns a new byte array config utility wrapper
func NewBytesConfig(override config.Config, defaultValue []byte) config.Value[[]byte] {
	return New(override, defaultValue, ToBytes)
}

// NewBoolConfig returns a new bool config utility wrapper
func NewBoolConfig(override config.Config, defaultValue bool) config.Value[bool] {
	return New(override, defaultValue, ToBool)
}

// NewUint64Config returns a new uint64 config utility wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Value[uint64] {
	return New(override, defaultValue, ToUint64)
}

// NewStringConfig returns a new string config utility wrapper
func NewStringConfig(override config.Config, defaultValue string) config.Value[string] {
	return New(override, defaultValue, ToString)
}

// NewDurationConfig returns a new duration config utility wrapper
func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Value[time.Duration] {
	return New(override, defaultValue, ToDuration)
}

func ToBytes(raw interface{}) ([]byte, error) {
	switch v := raw.(type) {
	case []byte:
		return v, nil
	}
	return nil, ErrUnsuportedConversion
}

func ToBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case []byte:
		return strconv.ParseBool(string(v))
	case bool:
		return v, nil
	}
	return false, ErrUnsuportedConversion
}

func ToUint64(raw interface{}) (uint64, error) {
	switch v := raw.(type) {
	case []byte:
		return strconv.ParseUint(string(v), 10, 64)
	case uint64:
		return v, nil
	case int:
		if v < 0 {
			return 0, errors.Errorf("config: negative value %d", v)
		}
		return uint64(v), nil
	}
	return 0, ErrUnsuportedConversion
}

func ToString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case []byte:
		return string(v), nil
	case string:
		return v, nil
	}
	return "", ErrUnsuportedConversion
}

func ToDuration(raw interface{}) (time.Duration, error) {
	switch v := raw.(type) {
	case []byte:
		return time.ParseDuration(string(v))
	case string:
		return time.ParseDuration(v)
	case time.Duration:
		return v, nil
	}
	return 0, ErrUnsuportedConversion
}
