// Package storage reads and writes project files through an S3-compatible
// endpoint using minio-go.
//
// Requests use path-style addressing. Set Region to keep presigning local;
// without it minio-go asks the endpoint for the bucket location first.
//
// Errors from the endpoint are mapped onto ErrBucketNotFound,
// ErrObjectNotFound, ErrAccessDenied and ErrBucketExists. The underlying
// minio.ErrorResponse stays wrapped and can be recovered with errors.As.
package storage
