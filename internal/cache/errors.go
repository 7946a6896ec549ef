package cache

import "github.com/pkg/errors"

// ErrUnsupportedCapability is returned by backends that do not implement a
// given capability at full performance.
var ErrUnsupportedCapability = errors.New("cache backend does not support this capability")
