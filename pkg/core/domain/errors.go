package domain

import "fmt"

// StorageInitError means the visit table could not be opened or created.
// The service must not start without it.
type StorageInitError struct {
	Path string
	Err  error
}

func (e *StorageInitError) Error() string {
	return fmt.Sprintf("storage init %s: %v", e.Path, e.Err)
}

func (e *StorageInitError) Unwrap() error { return e.Err }

// StorageWriteError means a single visit could not be persisted
type StorageWriteError struct {
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storage write: %v", e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// StorageReadError means a listing, export or stats query failed.
// It is distinct from an empty result.
type StorageReadError struct {
	Op  string
	Err error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("storage read (%s): %v", e.Op, e.Err)
}

func (e *StorageReadError) Unwrap() error { return e.Err }
