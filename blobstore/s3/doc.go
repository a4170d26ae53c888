// Package s3 provides a blobstore.Store backed by Amazon S3.
//
// Descriptor sets are fetched with ranged GetObject calls; match tables
// are uploaded through the S3 transfer manager.
package s3
