package store

import "errors"

// ErrNotFound is returned when a row does not exist. Handlers map it to
// a 404; services treat it as "no state yet" where that is meaningful.
var ErrNotFound = errors.New("not found")
