// Package blob abstracts the object-storage backend that holds the tracker
// document. The store deals in whole objects only: one Download or Upload per
// call, no partial reads, no range writes.
package blob

import (
	"context"
	"errors"
)

var (
	// ErrNotExist is returned by Download when the named object has never
	// been written. Callers typically treat this as "empty document".
	ErrNotExist = errors.New("blob: object does not exist")

	// ErrPreconditionFailed is returned by Upload when a generation
	// precondition was supplied and another writer got there first.
	ErrPreconditionFailed = errors.New("blob: generation precondition failed")
)

// Store provides whole-object access to a storage backend.
//
// Download returns the object bytes together with the backend's generation
// number for that object. Upload writes a new full object body; when
// expectGeneration is non-nil the write only succeeds if the object's current
// generation still matches (0 meaning "must not exist yet"), otherwise it
// fails with ErrPreconditionFailed. Upload returns the generation of the
// newly written object.
type Store interface {
	Download(ctx context.Context, name string) (data []byte, generation int64, err error)
	Upload(ctx context.Context, name string, data []byte, contentType string, expectGeneration *int64) (int64, error)
}
