package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

// ListBuckets returns every bucket visible to the credentials.
func (s *StorageClient) ListBuckets(ctx context.Context) ([]Bucket, error) {
	start := time.Now()
	infos, err := s.client.ListBuckets(ctx)
	err = translateError(err)
	s.observeOperation("listBuckets", "", "", time.Since(start), err, 0)
	if err != nil {
		return nil, err
	}

	buckets := make([]Bucket, 0, len(infos))
	for _, info := range infos {
		buckets = append(buckets, Bucket{Name: info.Name, CreatedAt: info.CreationDate})
	}
	return buckets, nil
}

// BucketExists reports whether bucket exists.
func (s *StorageClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	start := time.Now()
	ok, err := s.client.BucketExists(ctx, bucket)
	err = translateError(err)
	s.observeOperation("bucketExists", bucket, "", time.Since(start), err, 0)
	return ok, err
}

// CreateBucket creates bucket in the configured region.
func (s *StorageClient) CreateBucket(ctx context.Context, bucket string) error {
	start := time.Now()
	err := translateError(s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}))
	s.observeOperation("createBucket", bucket, "", time.Since(start), err, 0)
	if err == nil {
		s.logInfo(ctx, "created bucket", map[string]interface{}{"bucket": bucket})
	}
	return err
}

// RemoveBucket deletes an empty bucket.
func (s *StorageClient) RemoveBucket(ctx context.Context, bucket string) error {
	start := time.Now()
	err := translateError(s.client.RemoveBucket(ctx, bucket))
	s.observeOperation("removeBucket", bucket, "", time.Since(start), err, 0)
	return err
}

// Upload stores r under key. size may be -1 when unknown. Unless
// opts.Upsert is set an existing object is left untouched and
// ErrObjectExists is returned.
func (s *StorageClient) Upload(ctx context.Context, bucket, key string, r io.Reader, size int64, opts ...UploadOptions) (Object, error) {
	var o UploadOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	start := time.Now()
	obj, err := s.upload(ctx, bucket, key, r, size, o)
	s.observeOperation("upload", bucket, key, time.Since(start), err, obj.Size)
	return obj, err
}

func (s *StorageClient) upload(ctx context.Context, bucket, key string, r io.Reader, size int64, o UploadOptions) (Object, error) {
	if !o.Upsert {
		_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
		switch err = translateError(err); {
		case err == nil:
			return Object{}, fmt.Errorf("%w: %s/%s", ErrObjectExists, bucket, key)
		case !errors.Is(err, ErrObjectNotFound):
			return Object{}, err
		}
	}

	info, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  o.ContentType,
		CacheControl: o.CacheControl,
		UserMetadata: o.Metadata,
	})
	if err != nil {
		return Object{}, translateError(err)
	}

	return Object{
		Bucket:       info.Bucket,
		Key:          info.Key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  o.ContentType,
		LastModified: info.LastModified,
		Metadata:     o.Metadata,
	}, nil
}

// Download reads the whole object into memory.
func (s *StorageClient) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	start := time.Now()
	data, err := s.download(ctx, bucket, key)
	s.observeOperation("download", bucket, key, time.Since(start), err, int64(len(data)))
	return data, err
}

func (s *StorageClient) download(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateError(err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, translateError(err)
	}
	return buf.Bytes(), nil
}

// Stat returns the object's metadata without reading it.
func (s *StorageClient) Stat(ctx context.Context, bucket, key string) (Object, error) {
	start := time.Now()
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	err = translateError(err)
	s.observeOperation("stat", bucket, key, time.Since(start), err, 0)
	if err != nil {
		return Object{}, err
	}
	return objectFromInfo(bucket, info), nil
}

// List returns the objects under prefix, recursively.
func (s *StorageClient) List(ctx context.Context, bucket, prefix string) ([]Object, error) {
	start := time.Now()

	var objects []Object
	var err error
	for info := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			err = translateError(info.Err)
			break
		}
		objects = append(objects, objectFromInfo(bucket, info))
	}

	s.observeOperation("list", bucket, prefix, time.Since(start), err, 0)
	if err != nil {
		return nil, err
	}
	return objects, nil
}

// Remove deletes keys from bucket. Missing keys are not an error.
func (s *StorageClient) Remove(ctx context.Context, bucket string, keys ...string) error {
	start := time.Now()

	var errs []error
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
			err = translateError(err)
			s.logWarn(ctx, "failed to remove object", err, map[string]interface{}{"bucket": bucket, "key": key})
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	s.observeOperation("remove", bucket, "", time.Since(start), err, int64(len(keys)))
	return err
}

// SignedURL returns a presigned GET URL for key.
func (s *StorageClient) SignedURL(ctx context.Context, bucket, key string, expiry ...time.Duration) (string, error) {
	start := time.Now()
	u, err := s.client.PresignedGetObject(ctx, bucket, key, presignExpiry(expiry), nil)
	err = translateError(err)
	s.observeOperation("signedURL", bucket, key, time.Since(start), err, 0)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// SignedUploadURL returns a presigned PUT URL for key.
func (s *StorageClient) SignedUploadURL(ctx context.Context, bucket, key string, expiry ...time.Duration) (string, error) {
	start := time.Now()
	u, err := s.client.PresignedPutObject(ctx, bucket, key, presignExpiry(expiry))
	err = translateError(err)
	s.observeOperation("signedUploadURL", bucket, key, time.Since(start), err, 0)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func presignExpiry(expiry []time.Duration) time.Duration {
	if len(expiry) > 0 && expiry[0] > 0 {
		return expiry[0]
	}
	return DefaultPresignExpiry
}

func objectFromInfo(bucket string, info minio.ObjectInfo) Object {
	return Object{
		Bucket:       bucket,
		Key:          info.Key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
		Metadata:     info.UserMetadata,
	}
}
