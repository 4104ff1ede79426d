package svc

import "errors"

// ErrUnknownCacheBackend is returned for a cache.backend or tier name that has no store.
var ErrUnknownCacheBackend = errors.New("unknown cache backend")

// ErrStorageInitFailed wraps any failure to open a cache store.
var ErrStorageInitFailed = errors.New("storage initialization failed")
