package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/hupe1980/cascade/resource"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction over immutable named blobs.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Mappable is an optional interface for Blobs whose contents are already
// in memory.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() []byte
}

// ReadAll reads the whole blob into a new slice, waiting on rc's IO limit
// (rc may be nil).
func ReadAll(ctx context.Context, s Store, name string, rc *resource.Controller) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		if err := rc.AcquireIO(ctx, len(m.Bytes())); err != nil {
			return nil, err
		}
		return bytes.Clone(m.Bytes()), nil
	}

	data := make([]byte, 0, b.Size())
	buf := bytes.NewBuffer(data)
	r := resource.NewRateLimitedReader(ctx, io.NewSectionReader(b, 0, b.Size()), rc)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
