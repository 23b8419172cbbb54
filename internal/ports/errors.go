package ports

// ErrNotFound is returned by repositories and services when a record does not exist.
var ErrNotFound = errString("not found")

type errString string

func (e errString) Error() string { return string(e) }

// ErrAlreadyStarted is returned when an import is no longer queued.
var ErrAlreadyStarted = errString("import already started")
