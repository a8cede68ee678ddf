package sqlite

import "errors"

// Common errors returned by storage operations
var ErrStorageClosed = errors.New("storage is closed")
