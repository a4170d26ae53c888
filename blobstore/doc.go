// Package blobstore abstracts where descriptor sets are read from and
// match tables are written to.
//
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local file system, read through mmap
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3
//   - minio.Store: MinIO and other S3-compatible services
//
// # Reading
//
// ReadAll loads a whole blob and charges its size to a resource
// controller's IO budget:
//
//	data, err := blobstore.ReadAll(ctx, store, "42.regions", rc)
package blobstore
