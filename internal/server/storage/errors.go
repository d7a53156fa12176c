package storage

import "errors"

// ErrKeyNotFound indicates the (owner, key) pair is absent.
var ErrKeyNotFound = errors.New("key not found")
